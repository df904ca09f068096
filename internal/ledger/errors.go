package ledger

import "errors"

// Instruction errors. Any of them aborts the instruction with no effect.
var (
	ErrAlreadyInitialized      = errors.New("the program has already been initialized")
	ErrNotInitialized          = errors.New("the program has not been initialized")
	ErrTitleTooLong            = errors.New("title exceeds the maximum length of 64 characters")
	ErrDescriptionTooLong      = errors.New("description exceeds the maximum length of 512 characters")
	ErrImageURLTooLong         = errors.New("image URL exceeds the maximum length of 256 characters")
	ErrInvalidGoalAmount       = errors.New("invalid goal amount, goal must be greater than zero")
	ErrUnauthorized            = errors.New("unauthorized access")
	ErrCampaignNotFound        = errors.New("campaign not found")
	ErrInactiveCampaign        = errors.New("campaign is inactive")
	ErrInvalidDonationAmount   = errors.New("donation amount is below the minimum")
	ErrGoalReached             = errors.New("campaign goal reached")
	ErrInvalidWithdrawalAmount = errors.New("withdrawal amount is below the minimum")
	ErrInsufficientBalance     = errors.New("insufficient funds in the campaign")
	ErrInsufficientFunds       = errors.New("payer has insufficient lamports")
	ErrInvalidPlatformAddress  = errors.New("the provided platform address is invalid")
	ErrInvalidPlatformFee      = errors.New("invalid platform fee percentage")
	ErrSequenceMismatch        = errors.New("sequence number does not match the next receipt")
	ErrAddressCollision        = errors.New("derived address is already in use")
	ErrArithmeticOverflow      = errors.New("arithmetic overflow")
)
