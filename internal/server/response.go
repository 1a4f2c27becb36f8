package server

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/vineet-vishwakarma/Chat-App/internal/apperr"
)

type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respond(c *gin.Context, status int, data any, msg string) {
	c.JSON(status, apiResponse{StatusCode: status, Data: data, Message: msg, Success: status < 400})
}

// fail writes err as an error envelope. Server-side kinds are logged.
func fail(c *gin.Context, op string, err error) {
	status := apperr.StatusOf(err)
	if status >= 500 {
		log.Error().Err(err).Str("op", op).Str("path", c.FullPath()).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("op", op).Msg("request rejected")
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": apperr.MessageOf(err)})
}
