package show

import "testing"

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusUpcoming, StatusCancelled, StatusDone, StatusPaymentReceived} {
		if !ValidStatus(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}

	for _, s := range []string{"", "upcoming", "Postponed", "Done "} {
		if ValidStatus(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}
