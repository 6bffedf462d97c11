package giftjourney

// Version is the current release of the giftjourney client.
const Version = "0.3.0"
