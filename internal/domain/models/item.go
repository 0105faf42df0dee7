package models

// UnknownItemName is the display name given to payloads the catalog does not know.
const UnknownItemName = "Unknown Item"

// ItemReference identifies a catalog item as seen by the scanning workflow.
type ItemReference struct {
	Identifier    string `json:"identifier" bson:"code"`
	DisplayName   string `json:"display_name" bson:"name"`
	KnownQuantity int    `json:"known_quantity" bson:"quantity"`
}

// UnknownItem builds the sentinel reference for an unresolved payload.
func UnknownItem(payload string) ItemReference {
	return ItemReference{Identifier: payload, DisplayName: UnknownItemName}
}

// IsUnknown reports whether the reference is the unresolved sentinel.
func (r ItemReference) IsUnknown() bool {
	return r.DisplayName == UnknownItemName && r.KnownQuantity == 0
}
