package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stakevault/internal/stakeapi"
)

type txParams struct {
	Amount float64 `json:"amount" binding:"required"`
}

type PaginatedTx struct {
	Count    int                    `json:"count"`
	Next     string                 `json:"next"`
	Previous string                 `json:"previous"`
	Results  []stakeapi.Transaction `json:"results"`
}

// SubmitDeposit creates a pending deposit for admin review.
func SubmitDeposit(c *gin.Context) {
	snap, ok := currentAccount(c)
	if !ok {
		return
	}
	var p txParams
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := Sessions(c).SubmitDeposit(snap.Id, p.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": updated})
}

// SubmitWithdraw creates a pending withdrawal for admin review.
func SubmitWithdraw(c *gin.Context) {
	snap, ok := currentAccount(c)
	if !ok {
		return
	}
	var p txParams
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := Sessions(c).SubmitWithdrawal(snap.Id, p.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": updated})
}

// GetTransactionsList returns the newest-first feed, paginated.
func GetTransactionsList(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil || size < 1 || size > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "maximum size is 100"})
		return
	}
	snap, ok := currentAccount(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, paginateTx(snap.Transactions, page, size))
}

func paginateTx(transactions []stakeapi.Transaction, page int, size int) (paginatedTx PaginatedTx) {
	paginatedTx.Results = []stakeapi.Transaction{}
	paginatedTx.Count = len(transactions)
	i := (page - 1) * size
	if len(transactions) <= i {
		return paginatedTx
	}
	if len(transactions) > page*size {
		paginatedTx.Next = fmt.Sprintf("/users/tx/?page=%d&size=%d", page+1, size)
	}
	if page > 1 {
		paginatedTx.Previous = fmt.Sprintf("/users/tx/?page=%d&size=%d", page-1, size)
	}
	j := i + size
	if j > len(transactions) {
		j = len(transactions)
	}
	paginatedTx.Results = transactions[i:j]
	return paginatedTx
}
