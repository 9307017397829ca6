package validator

import (
	"testing"

	"lockerd/pkg/logger"
	"lockerd/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
}

func TestValidateRequest_HoursBounds(t *testing.T) {
	v := NewReservationValidator(testLogger())
	lockerID := "64b64c3f2f9b9a0012345678"

	cases := []struct {
		hours   int
		wantErr bool
	}{
		{0, true},
		{-5, true},
		{1, false},
		{24, false},
		{72, false},
		{73, true},
	}

	for _, tc := range cases {
		err := v.ValidateRequest(&model.ReservationRequest{LockerID: lockerID, Hours: tc.hours})
		if tc.wantErr && err == nil {
			t.Errorf("hours=%d: expected error", tc.hours)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("hours=%d: unexpected error: %v", tc.hours, err)
		}
	}
}

func TestValidateRequest_LockerID(t *testing.T) {
	v := NewReservationValidator(testLogger())

	if err := v.ValidateRequest(&model.ReservationRequest{Hours: 2}); err == nil {
		t.Error("missing locker ID must fail validation")
	}
	if err := v.ValidateRequest(&model.ReservationRequest{LockerID: "not-an-object-id", Hours: 2}); err == nil {
		t.Error("malformed locker ID must fail validation")
	}
}
