package api

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gridScope/internal/contract"
	"gridScope/internal/dashboard"
	"gridScope/internal/model"
	"gridScope/internal/settings"
)

// Response is the JSON envelope for every endpoint.
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

// FieldView is one dashboard field as served over HTTP.
type FieldView struct {
	Field     string     `json:"field"`
	Label     string     `json:"label"`
	Value     string     `json:"value,omitempty"`
	Raw       string     `json:"raw,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// WriteResult describes a submitted transaction.
type WriteResult struct {
	Method      string          `json:"method"`
	TxHash      string          `json:"tx_hash,omitempty"`
	BlockNumber uint64          `json:"block_number,omitempty"`
	GasUsed     uint64          `json:"gas_used,omitempty"`
	Refreshed   bool            `json:"refreshed"`
	Snapshot    *model.Snapshot `json:"snapshot,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Code: 0, Msg: "ok", Data: fieldViews(s.dashboard.State())})
}

func (s *Server) refreshDashboard(c *gin.Context) {
	snap, err := s.dashboard.Refresh(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), Response{Code: -1, Msg: err.Error(), Data: snap})
		return
	}
	c.JSON(http.StatusOK, Response{Code: 0, Msg: "ok", Data: snap})
}

func (s *Server) submitSettings(c *gin.Context) {
	var form settings.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: -1, Msg: err.Error()})
		return
	}
	s.respondWrite(c, s.settings.Submit(c.Request.Context(), form))
}

func (s *Server) withdraw(c *gin.Context) {
	s.respondWrite(c, s.settings.Withdraw(c.Request.Context()))
}

func (s *Server) respondWrite(c *gin.Context, out settings.Outcome) {
	result := WriteResult{Method: out.Method}
	if hash := out.TxHash(); hash != (common.Hash{}) {
		result.TxHash = hash.Hex()
	}
	if out.Receipt != nil {
		result.GasUsed = out.Receipt.GasUsed
		if out.Receipt.BlockNumber != nil {
			result.BlockNumber = out.Receipt.BlockNumber.Uint64()
		}
	}

	// Validation failures never reach the chain, so there is nothing to refresh.
	if !settings.IsValidation(out.Err) && s.cfg.RefreshAfterWrite(out.OK()) {
		snap, err := s.dashboard.Refresh(c.Request.Context())
		result.Refreshed = err == nil
		result.Snapshot = &snap
		if err != nil {
			s.logger.Warn("refresh after write failed", zap.String("method", out.Method), zap.Error(err))
		}
	}

	if out.Err != nil {
		c.JSON(statusFor(out.Err), Response{Code: -1, Msg: out.Err.Error(), Data: result})
		return
	}
	c.JSON(http.StatusOK, Response{Code: 0, Msg: "ok", Data: result})
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case settings.IsValidation(err):
		return http.StatusBadRequest
	case contract.IsRevert(err):
		return http.StatusUnprocessableEntity
	case contract.IsRPC(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func fieldViews(state *dashboard.State) []FieldView {
	fields := state.Fields()
	views := make([]FieldView, 0, len(dashboard.Metrics))
	for _, m := range dashboard.Metrics {
		view := FieldView{Field: m.Field, Label: m.Label}
		if f, ok := fields[m.Field]; ok {
			updated := f.UpdatedAt
			view.Value = f.Value
			view.Raw = f.Raw
			view.UpdatedAt = &updated
		}
		views = append(views, view)
	}
	return views
}
