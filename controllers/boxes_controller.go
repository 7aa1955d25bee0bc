package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BoxByPhone answers the donor site's pay-box lookup.
func BoxByPhone(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		phone, ok := parsePhone(c, c.Query("phoneNumber"))
		if !ok {
			return
		}
		box, err := env.Boxes.FindBoxByPhone(c.Request.Context(), phone)
		if err != nil {
			storeError(env, c, err, "box")
			return
		}
		c.JSON(http.StatusOK, box)
	}
}

func GetBox(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "box")
		if !ok {
			return
		}
		box, err := env.Boxes.GetBox(c.Request.Context(), id)
		if err != nil {
			storeError(env, c, err, "box")
			return
		}
		c.JSON(http.StatusOK, box)
	}
}
