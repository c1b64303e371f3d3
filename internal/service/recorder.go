package service

import (
	"shopcore/internal/model"
	"shopcore/internal/repository"
	"shopcore/internal/reqctx"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistoryRecorder appends immutable order status audit rows. Attribution
// is derived from the per-operation request context: an admin-channel
// caller is recorded as "admin", a public-channel caller as "api", and
// the absence of a request context means a background change — recorded
// as "system" with changed_by="system".
type HistoryRecorder struct {
	repo repository.OrderHistoryRepository
}

func NewHistoryRecorder(repo repository.OrderHistoryRepository) *HistoryRecorder {
	return &HistoryRecorder{repo: repo}
}

// RecordTx appends one history row inside the caller's transaction, so a
// failed status write rolls the audit row back with it.
func (r *HistoryRecorder) RecordTx(tx *gorm.DB, orderID uuid.UUID, oldStatus *model.OrderStatus, newStatus model.OrderStatus, notes *string, rc *reqctx.RequestContext) error {
	h := &model.OrderStatusHistory{
		OrderID:   orderID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Notes:     notes,
	}

	if rc == nil {
		system := "system"
		h.ChangeSource = model.SourceSystem
		h.ChangedBy = &system
	} else {
		h.IPAddress = rc.IP
		h.ChangedBy = rc.Actor
		if rc.Channel == reqctx.ChannelAdmin {
			h.ChangeSource = model.SourceAdmin
		} else {
			h.ChangeSource = model.SourceAPI
		}
	}

	return r.repo.AppendTx(tx, h)
}
