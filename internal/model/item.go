package model

import "github.com/google/uuid"

type GroceryItem struct {
	ID       ItemID `json:"id"`
	Name     string `json:"name"`
	Emoji    string `json:"emoji"`
	Category string `json:"category"`
	IsBought bool   `json:"isBought"`
	Quantity int    `json:"quantity"`
	Unit     string `json:"unit"`
}

type Suggestion struct {
	Name     string `json:"name"`
	Emoji    string `json:"emoji"`
	Category string `json:"category"`
}

// Category carries an optional server id: locally created categories have no
// id until the backend confirms them.
type Category struct {
	ID    *uuid.UUID `json:"id,omitempty"`
	Name  string     `json:"name"`
	Emoji string     `json:"emoji"`
}

const (
	DefaultQuantity = 1
	DefaultUnit     = "piece"
)
