package dto

// CheckinItem is one entry of a check-in batch. The legacy client sends {"id": n}.
type CheckinItem struct {
	StudentID int64 `json:"studentId"`
	LegacyID  int64 `json:"id"`
}

// ResolvedID prefers studentId and falls back to the legacy id field.
func (i CheckinItem) ResolvedID() int64 {
	if i.StudentID != 0 {
		return i.StudentID
	}
	return i.LegacyID
}

// CheckinRequest is the ordered batch posted by the manual-entry page.
type CheckinRequest []CheckinItem

// StudentIDs flattens the batch preserving submission order.
func (r CheckinRequest) StudentIDs() []int64 {
	ids := make([]int64, 0, len(r))
	for _, item := range r {
		ids = append(ids, item.ResolvedID())
	}
	return ids
}

// ScanRequest carries a scanner card read.
type ScanRequest struct {
	CardID string `json:"cardId" validate:"required,max=50"`
}

// RecentVisitsQuery bounds the recent visits listing.
type RecentVisitsQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=100"`
}
