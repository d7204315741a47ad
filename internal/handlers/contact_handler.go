package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/artcatalog/backend/internal/services"
	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	emailService       *services.EmailService
	mailingListService *services.MailingListService
}

func NewContactHandler(emailService *services.EmailService, mailingListService *services.MailingListService) *ContactHandler {
	return &ContactHandler{emailService: emailService, mailingListService: mailingListService}
}

type contactRequest struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Message   string `json:"message"`
	Subscribe bool   `json:"subscribe"`
}

// Email handles POST /api/email
func (h *ContactHandler) Email(c *gin.Context) {
	h.send(c, services.AudiencePersonal)
}

// FrontEmail handles POST /api/front-email
func (h *ContactHandler) FrontEmail(c *gin.Context) {
	h.send(c, services.AudienceFront)
}

func (h *ContactHandler) send(c *gin.Context, audience services.Audience) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "message": "failed to send email"})
		return
	}

	sent, err := h.emailService.SendContact(c.Request.Context(), audience, services.ContactMessage{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Message:   req.Message,
	})
	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			respondError(c, err)
			return
		}
		log.Printf("Contact relay failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "message": "failed to send email"})
		return
	}

	if req.Subscribe && sent.Email != "" {
		if err := h.mailingListService.Subscribe(c.Request.Context(), audience, sent.Email); err != nil {
			log.Printf("WARN: mailing list signup for %s failed: %v", sent.Email, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Successfully sent email from %s %s, %s", sent.FirstName, sent.LastName, sent.Email),
	})
}

// Subscribe handles POST /api/mailing-list
func (h *ContactHandler) Subscribe(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		List  string `json:"list"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "message": err.Error()})
		return
	}
	audience := services.Audience(req.List)
	if audience == "" {
		audience = services.AudiencePersonal
	}

	if err := h.mailingListService.Subscribe(c.Request.Context(), audience, req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("subscribed %s", req.Email)})
}
