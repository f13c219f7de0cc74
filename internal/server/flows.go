package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/convoflow/engine/internal/store"
	"github.com/convoflow/engine/pkg/api"
)

func (s *Server) listFlows(c *gin.Context) {
	flows, err := s.engine.ListFlows(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  fmt.Sprintf("Failed to list flows: %v", err),
			Status: http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, api.FlowsListResponse{
		Flows: flows,
		Count: len(flows),
	})
}

func (s *Server) getFlow(c *gin.Context) {
	flowID := api.FlowID(c.Param("flowID"))

	flow, err := s.engine.GetFlow(c.Request.Context(), flowID)
	if err != nil {
		if errors.Is(err, store.ErrFlowNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{
				Error:  fmt.Sprintf("Flow not found: %s", flowID),
				Status: http.StatusNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  fmt.Sprintf("Failed to get flow: %v", err),
			Status: http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, flow)
}

func (s *Server) registerFlow(c *gin.Context) {
	var flow api.Flow
	if err := c.ShouldBindJSON(&flow); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("Invalid JSON: %v", err),
			Status: http.StatusBadRequest,
		})
		return
	}

	if err := s.engine.RegisterFlow(c.Request.Context(), &flow); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("Invalid flow: %v", err),
			Status: http.StatusBadRequest,
		})
		return
	}

	c.JSON(http.StatusCreated, api.FlowRegisteredResponse{
		Flow:    &flow,
		Message: "Flow registered",
	})
}

func (s *Server) registerChannel(c *gin.Context) {
	var channel api.ChannelConfig
	if err := c.ShouldBindJSON(&channel); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("Invalid JSON: %v", err),
			Status: http.StatusBadRequest,
		})
		return
	}

	err := s.engine.RegisterChannel(c.Request.Context(), &channel)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("Invalid channel: %v", err),
			Status: http.StatusBadRequest,
		})
		return
	}

	c.JSON(http.StatusCreated, api.MessageResponse{
		Message: "Channel registered",
	})
}

func (s *Server) registerUser(c *gin.Context) {
	var user api.User
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("Invalid JSON: %v", err),
			Status: http.StatusBadRequest,
		})
		return
	}

	if err := s.engine.RegisterUser(c.Request.Context(), &user); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("Invalid user: %v", err),
			Status: http.StatusBadRequest,
		})
		return
	}

	c.JSON(http.StatusCreated, api.MessageResponse{
		Message: "User registered",
	})
}

func (s *Server) getSession(c *gin.Context) {
	address := c.Param("address")

	sess, step, err := s.engine.GetSessionForAddress(
		c.Request.Context(), address,
	)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) ||
			errors.Is(err, store.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{
				Error:  fmt.Sprintf("No active session for: %s", address),
				Status: http.StatusNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  fmt.Sprintf("Failed to get session: %v", err),
			Status: http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, api.SessionResponse{
		Session: sess,
		Step:    step,
	})
}
