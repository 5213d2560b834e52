package models

// LineItemInput is one entry of a cart replacement request
type LineItemInput struct {
	Product  string   `json:"product"`
	Quantity Quantity `json:"quantity"`
}
