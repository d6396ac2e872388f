package domain

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/stagebill/stagebill-server/internal/models"
)

// TokenTTL is the lifetime of an approval token.
const TokenTTL = 30 * 24 * time.Hour

// NewOpaqueToken returns a 64-character random hex token for approval
// and invoice-view links.
func NewOpaqueToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}

// ValidateToken runs the redemption pre-checks in order, failing
// closed on the first violated condition. The caller supplies the
// token row, the targets it claims to cover, and the current time.
func ValidateToken(tok *models.ApprovalToken, wo *models.WorkOrder, co *models.ChangeOrder, now time.Time) error {
	if tok == nil || !now.Before(tok.ExpiresAt) {
		return ErrTokenInvalid
	}
	if tok.UsedAt != nil {
		return ErrTokenUsed
	}
	if wo == nil || tok.WorkOrderID != wo.ID {
		return ErrTokenMismatch
	}
	if tok.ChangeOrderID != nil {
		if co == nil || co.ID != *tok.ChangeOrderID {
			return fmt.Errorf("%w: change order not found", ErrNotFound)
		}
		if co.IsApproved {
			return fmt.Errorf("%w: change order already approved", ErrStateConflict)
		}
		return nil
	}
	if wo.Status != models.WorkOrderPendingApproval {
		return fmt.Errorf("%w: work order is no longer pending approval", ErrStateConflict)
	}
	return nil
}

// WorkOrderContentHash computes the tamper-evidence hash over a work
// order's key immutable fields at signing time.
func WorkOrderContentHash(wo *models.WorkOrder) string {
	payload := strings.Join([]string{
		wo.ID,
		wo.EventName,
		wo.EventDate.UTC().Format(time.RFC3339),
		wo.Venue,
		wo.EventType,
		strings.Join(wo.ServiceRefs, "|"),
		wo.ScopeNotes,
		string(wo.EstimateType),
		fmt.Sprintf("%.4f/%.4f/%.4f", wo.HoursMin, wo.HoursMax, wo.HoursFixed),
		fmt.Sprintf("%.4f", wo.RateSnapshot),
	}, "\n")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// ChangeOrderContentHash computes the tamper-evidence hash for a
// change-order approval, binding the change to its parent order and
// the rate it will be billed at.
func ChangeOrderContentHash(co *models.ChangeOrder, wo *models.WorkOrder) string {
	payload := strings.Join([]string{
		co.ID,
		co.WorkOrderID,
		fmt.Sprintf("%.4f", co.AdditionalHours),
		co.ReasonCode,
		co.ReasonText,
		fmt.Sprintf("%.4f", wo.RateSnapshot),
	}, "\n")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// SignWebhookBody computes the HMAC-SHA256 hex signature the payment
// processor attaches to webhook deliveries.
func SignWebhookBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks the processor's HMAC-SHA256 signature
// over the raw webhook body.
func VerifyWebhookSignature(body []byte, signature, secret string) error {
	expected := SignWebhookBody(body, secret)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("%w: webhook signature mismatch", ErrIntegrity)
	}
	return nil
}
