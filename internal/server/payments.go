package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/foundr/internal/payment/domain"
	"go.uber.org/zap"
)

const maxWebhookBytes = 1 << 20

type createPaymentIntentRequest struct {
	TierID   string         `json:"tierId"`
	Amount   flexInt64      `json:"amount"`
	Currency string         `json:"currency"`
	Metadata map[string]any `json:"metadata"`
}

func (s *Server) CreatePaymentIntent(c *gin.Context) {
	var req createPaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, errInvalidNumber) {
			AbortWithError(c, paymentdomain.ErrInvalidAmount)
			return
		}
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.CreateIntent(c.Request.Context(), paymentdomain.CreateIntentRequest{
		TierID:   req.TierID,
		Amount:   req.Amount.Int64(),
		Currency: req.Currency,
		Metadata: stringifyMetadata(req.Metadata),
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		AbortWithError(c, paymentdomain.ErrInvalidPayload)
		return
	}

	result, err := s.paymentSvc.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if result.Duplicate {
		s.log.Info("duplicate webhook event acknowledged", zap.String("event_type", result.EventType))
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func stringifyMetadata(in map[string]any) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			out[k] = val
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
