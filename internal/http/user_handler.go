package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/coder-gabrielsantos/sigecon-server/internal/model"
	"github.com/coder-gabrielsantos/sigecon-server/internal/service"
)

type loginRequest struct {
	CNPJ  string `json:"cnpj" binding:"required"`
	Senha string `json:"senha" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cnpj and senha are required"})
		return
	}

	result, err := h.users.Login(c.Request.Context(), req.CNPJ, req.Senha)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": result.Token,
		"user":  result.User,
	})
}

type createUserRequest struct {
	Nome string `json:"nome" binding:"required"`
	CNPJ string `json:"cnpj" binding:"required"`
	Role string `json:"role" binding:"required"`
}

func (h *Handler) createUser(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nome, cnpj and role are required"})
		return
	}

	created, err := h.users.CreateUser(c.Request.Context(), service.CreateUserInput{
		Name: strings.TrimSpace(req.Nome),
		CNPJ: req.CNPJ,
		Role: model.Role(strings.ToUpper(strings.TrimSpace(req.Role))),
	}, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":            created.User,
		"initialPassword": created.InitialPassword,
	})
}

func (h *Handler) listUsers(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	users, err := h.users.ListUsers(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) profile(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	user, err := h.users.Profile(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type changePasswordRequest struct {
	SenhaAtual string `json:"senha_atual" binding:"required"`
	SenhaNova  string `json:"senha_nova" binding:"required"`
}

func (h *Handler) changePassword(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "senha_atual and senha_nova are required"})
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), principal, req.SenhaAtual, req.SenhaNova); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}

type changeNameRequest struct {
	Nome string `json:"nome" binding:"required"`
}

func (h *Handler) changeName(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	var req changeNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nome is required"})
		return
	}

	user, err := h.users.ChangeName(c.Request.Context(), principal, strings.TrimSpace(req.Nome))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
