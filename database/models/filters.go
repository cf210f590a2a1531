package models

// Filter narrows cached outputs before they are shaped.
type Filter struct {
	Address          string
	MinConfirmations int
}
