package journeys

import (
	"net/url"
	"strings"
)

// ShareURL builds the public reveal link of a paid journey: {base}/reveal/{token}.
func ShareURL(base string, j Journey) (string, error) {
	if !j.Paid || j.ShareableToken == "" {
		return "", ErrNotShareable
	}
	return strings.TrimRight(base, "/") + "/reveal/" + url.PathEscape(j.ShareableToken), nil
}

// SocialShareText accompanies social share links of a revealed journey.
const SocialShareText = "Check out the amazing gift I just received!"

// SocialLinks are intent links a recipient can use to share a journey publicly.
type SocialLinks struct {
	PublicURL string
	X         string
	Facebook  string
}

// PublicURL is the explore page of a journey: {base}/journeys/public/{id}.
func PublicURL(base, journeyID string) string {
	return strings.TrimRight(base, "/") + "/journeys/public/" + url.PathEscape(journeyID)
}

// ShareLinks builds the X and Facebook share intents for a journey's public page.
func ShareLinks(base, journeyID string) SocialLinks {
	public := PublicURL(base, journeyID)
	return SocialLinks{
		PublicURL: public,
		X:         "https://twitter.com/intent/tweet?url=" + url.QueryEscape(public) + "&text=" + url.QueryEscape(SocialShareText),
		Facebook:  "https://www.facebook.com/sharer/sharer.php?u=" + url.QueryEscape(public),
	}
}
