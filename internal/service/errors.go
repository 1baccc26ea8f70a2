package service

import "errors"

var (
	ErrAccountAlreadyExists   = errors.New("account already exists")
	ErrAccountNotFound        = errors.New("account not found")
	ErrTransferAlreadyExists  = errors.New("transfer already exists")
	ErrTransferIsBeingCreated = errors.New("transfer is being created")
	ErrTransferNotFound       = errors.New("transfer not found")
	ErrRequestTimeout         = errors.New("request timed out")
	ErrBadRequest             = errors.New("bad request")
	ErrUnexpectedReply        = errors.New("unexpected reply")
)
