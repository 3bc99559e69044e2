package httpapi

import (
	"fmt"
	"net/http"

	"contactform/internal/models"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	MsgForcedError     = "Forced error (demo)"
	MsgMissingRequired = "Missing required fields"
	MsgInternalError   = "Internal server error"
	MsgSubmitted       = "Form submitted successfully!"
)

// ContactHandler 联系表单接口：只校验必填字段是否存在，不保存任何数据
type ContactHandler struct {
	logger *zap.Logger
}

func NewContactHandler(logger *zap.Logger) *ContactHandler {
	return &ContactHandler{logger: logger}
}

// POST /api/contact
// query:
// - forceError=true  固定返回 400（演示错误流程）
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
	defer func() {
		if p := recover(); p != nil {
			log.Error("Contact handler panic", zap.Error(fmt.Errorf("%v", p)))
			writeJSON(w, http.StatusInternalServerError, models.ContactResponse{Success: false, Error: MsgInternalError})
		}
	}()

	if r.URL.Query().Get("forceError") == "true" {
		log.Warn("Forced error triggered (showcase)")
		writeJSON(w, http.StatusBadRequest, models.ContactResponse{Success: false, Error: MsgForcedError})
		return
	}

	var payload any
	if err := readBodyJSON(r, maxBodyBytes, &payload); err != nil {
		log.Error("Failed to parse contact payload", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ContactResponse{Success: false, Error: MsgInternalError})
		return
	}
	if payload == nil {
		// a JSON null has no fields to read
		log.Error("Contact payload is null")
		writeJSON(w, http.StatusInternalServerError, models.ContactResponse{Success: false, Error: MsgInternalError})
		return
	}
	// arrays, strings and numbers parse but carry none of the fields
	body, _ := payload.(map[string]any)

	if !truthy(body[string(models.FieldFirstName)]) ||
		!truthy(body[string(models.FieldEmail)]) ||
		!truthy(body[string(models.FieldContactNumber)]) {
		log.Info("Contact payload missing required fields")
		writeJSON(w, http.StatusBadRequest, models.ContactResponse{Success: false, Error: MsgMissingRequired})
		return
	}

	contact, _ := body[string(models.FieldContactNumber)].(string)
	log.Debug("Form submission",
		zap.String("contact_number", maskPhone(contact)),
		zap.Bool("has_website", truthy(body[string(models.FieldCompanyWebsite)])),
		zap.Bool("has_message", truthy(body[string(models.FieldMessage)])),
	)
	writeJSON(w, http.StatusOK, models.ContactResponse{Success: true, Message: MsgSubmitted})
}

// GET /thank-you
func (h *ContactHandler) ThankYou(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Thank you for contacting us!\nWe've received your message and will get back to you shortly.\n"))
}
