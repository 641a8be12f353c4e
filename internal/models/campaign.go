package models

import (
	"encoding/json"
	"math"
)

// DueDatePlaceholder is the constant due date stamped on new campaigns.
const DueDatePlaceholder = "yes"

// Keys of a created campaign record.
const (
	CampaignIDKey      = "campaign_id"
	CampaignNameKey    = "name"
	CampaignDueDateKey = "due date"
)

// Campaign is a record of the in-memory campaign list. It is never persisted.
// Created records carry exactly the three known keys; a replaced record is the
// JSON object the client sent, kept as is.
type Campaign map[string]any

// NewCampaign builds a created record. name is any JSON value, nil included.
func NewCampaign(id int, name any) Campaign {
	return Campaign{
		CampaignIDKey:      id,
		CampaignNameKey:    name,
		CampaignDueDateKey: DueDatePlaceholder,
	}
}

// ID returns campaign_id when it holds a whole number. Records without one
// never match a lookup.
func (c Campaign) ID() (int, bool) {
	var f float64
	switch v := c[CampaignIDKey].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		f = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// HasID reports whether the record's campaign_id equals id.
func (c Campaign) HasID(id int) bool {
	got, ok := c.ID()
	return ok && got == id
}
