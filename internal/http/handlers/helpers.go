package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/autocrm-backend/internal/domain/user"
	apperr "github.com/yungbote/autocrm-backend/internal/pkg/errors"
	"github.com/yungbote/autocrm-backend/internal/platform/ctxutil"
)

func pathID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id", apperr.ErrInvalidArgument)
	}
	return id, nil
}

func queryInt(c *gin.Context, key string, def int) int {
	if v := strings.TrimSpace(c.Query(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func callerIsStaff(c *gin.Context) bool {
	id := ctxutil.GetIdentity(c.Request.Context())
	if id == nil {
		return false
	}
	role, ok := user.ParseRole(id.Role)
	return ok && role.IsStaff()
}
