package db

import (
	"hub/store"

	"github.com/gin-gonic/gin"
)

const storeKey = "store"

// SetStoreToContext makes the store reachable from every handler.
func SetStoreToContext(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(storeKey, st)
		c.Next()
	}
}

func StoreInstance(c *gin.Context) store.Store {
	v, ok := c.Get(storeKey)
	if !ok {
		return nil
	}
	st, _ := v.(store.Store)
	return st
}
