package entities

import "errors"

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrRoundNotFound       = errors.New("round not found")
	ErrRoundNotSettled     = errors.New("round is not settled")
	ErrUnknownGameType     = errors.New("unknown game type")
	ErrUnknownOutcome      = errors.New("unknown outcome")
	ErrMalformedBet        = errors.New("malformed bet")
	ErrBetNotPlaced        = errors.New("bet is not in placed status")
)
