package charge

import "errors"

var (
	// -- Resource State --
	ErrChargeNotFound = errors.New("charge not found")

	// -- Database & Operation Failures --
	ErrFailedCreateCharge = errors.New("failed to create charge")
	ErrFailedGetCharge    = errors.New("failed to get charge")
	ErrFailedUpdateCharge = errors.New("failed to update charge")
	ErrFailedSaveWebhook  = errors.New("failed to save webhook")
)
