package seeder

import (
	"encoding/json"
	"fmt"
	"time"
)

// AssetType tags every car asset.
const AssetType = "car"

// Car is the asset payload recorded by the CREATE transaction.
type Car struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Created  Date   `json:"datetime_created"`
	Designer string `json:"designer"`
}

// =============================================================================

// Date is a UTC timestamp serialized the way MongoDB extended JSON writes
// dates so the ledger's query layer can treat it as a date.
type Date time.Time

// MarshalJSON implements the json.Marshaler interface.
func (d Date) MarshalJSON() ([]byte, error) {
	v := struct {
		Date int64 `json:"$date"`
	}{
		Date: time.Time(d).UTC().UnixMilli(),
	}

	return json.Marshal(v)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (d *Date) UnmarshalJSON(data []byte) error {
	var v struct {
		Date *int64 `json:"$date"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	if v.Date == nil {
		return fmt.Errorf("date %s: missing $date", data)
	}

	*d = Date(time.UnixMilli(*v.Date).UTC())
	return nil
}

// Time returns the date as a time.Time.
func (d Date) Time() time.Time {
	return time.Time(d)
}

// =============================================================================

// createMetadata is attached to the CREATE transaction.
type createMetadata struct {
	Notes string `json:"notes"`
}

// transferMetadata is attached to every TRANSFER transaction.
type transferMetadata struct {
	Notes        *string `json:"notes"`
	NewOwner     string  `json:"new_owner"`
	TransferTime Date    `json:"transfer_time"`
}
