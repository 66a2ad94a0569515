package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MetaHandler reports build identity plus the chain coordinates clients
// need to verify they are talking to the right deployment.
type MetaHandler struct {
	env                 string
	version             string
	cooperativeContract string
	tokenContract       string
}

func NewMetaHandler(env, version, cooperativeContract, tokenContract string) *MetaHandler {
	return &MetaHandler{
		env:                 env,
		version:             version,
		cooperativeContract: cooperativeContract,
		tokenContract:       tokenContract,
	}
}

func (h *MetaHandler) GetMeta(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":                 "KoperasiChain Backend",
		"version":              h.version,
		"env":                  h.env,
		"cooperative_contract": h.cooperativeContract,
		"token_contract":       h.tokenContract,
	})
}
