package handler

import (
	"errors"
	"forensiai/backend/internal/config"
	"forensiai/backend/internal/models"
	"forensiai/backend/internal/session"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	jwt "github.com/golang-jwt/jwt/v5"
)

const actorKey = "officer"

type officerClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// generateJWT signs a token naming the officer as subject.
func (h *Handler) generateJWT(o models.Officer, now time.Time) (string, error) {
	claims := officerClaims{
		Name: o.Name,
		Role: o.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   o.ID,
			Issuer:    config.TokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.secret)
}

func (h *Handler) validateToken(raw string) (models.Officer, error) {
	claims := &officerClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return h.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(config.TokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return models.Officer{}, err
	}
	if claims.Subject == "" {
		return models.Officer{}, errors.New("token has no subject")
	}
	return models.Officer{ID: claims.Subject, Name: claims.Name, Role: claims.Role, Online: true}, nil
}

type tokenRequest struct {
	BadgeID     string `json:"badgeId" binding:"required"`
	AccessToken string `json:"accessToken" binding:"required"`
}

// IssueToken checks an officer's badge and access token and returns a
// signed session token.
func (h *Handler) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "badgeId and accessToken are required"})
		return
	}
	officer, err := h.Officers.Authenticate(c.Request.Context(), req.BadgeID, req.AccessToken)
	if errors.Is(err, session.ErrInvalidCredentials) {
		log.Printf("WARNING: Token refused for badge %q", req.BadgeID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid badge or access token"})
		return
	}
	if err != nil {
		log.Printf("ERROR: Failed to authenticate badge %q: %v", req.BadgeID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "officer directory unavailable"})
		return
	}
	token, err := h.generateJWT(officer, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "officer": officer})
}

// RequireOfficer rejects requests without a valid bearer token. Browsers
// cannot set headers on WebSocket upgrades, so a token query parameter is
// accepted too.
func (h *Handler) RequireOfficer(c *gin.Context) {
	raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok {
		raw = c.Query("token")
	}
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
		return
	}
	officer, err := h.validateToken(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
		return
	}
	c.Set(actorKey, officer)
	c.Next()
}

func actor(c *gin.Context) models.Officer {
	o, _ := c.MustGet(actorKey).(models.Officer)
	return o
}
