package main

import (
	"testing"

	"github.com/unowned-ai/giftjourney/pkg/payment"
)

func TestResultError(t *testing.T) {
	tests := []struct {
		state   payment.State
		wantErr bool
	}{
		{payment.StateComplete, false},
		{payment.StateTimeout, false},
		{payment.StateCanceled, true},
		{payment.StateError, true},
	}

	for _, tt := range tests {
		err := resultError(payment.Result{State: tt.state, SessionID: "cs_1"})
		if (err != nil) != tt.wantErr {
			t.Errorf("state %v: got error %v, want error=%v", tt.state, err, tt.wantErr)
		}
	}
}
