package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"tadoba-control-go/internal/models"
)

type ErrorResponse struct {
	Error string `json:"error" example:"camera_id is required"`
}

type MessageResponse struct {
	Message string `json:"message" example:"no workers available"`
}

type payload interface {
	Validate() error
}

// bindStrict reads the request body with the same rules the websocket
// gateway applies: unknown fields are rejected and required fields checked.
func bindStrict(c *gin.Context, v payload) error {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return err
	}
	if err := models.DecodeStrict(body, v); err != nil {
		return err
	}
	return v.Validate()
}
