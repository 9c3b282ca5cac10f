package orders

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/order-desk/internal/logging"
)

// ListHandler は GET /api/orders のハンドラーを返します（要ログイン）。
func ListHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logging.FromContext(c)
		records, err := repo.List(c.Request.Context())
		if err != nil {
			log.Error("orders.list_failed", slog.String("error", err.Error()))
			respondInternalError(c)
			return
		}
		c.JSON(http.StatusOK, records)
	}
}

// CreateHandler は POST /api/orders のハンドラーを返します（公開）。
func CreateHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logging.FromContext(c)

		var input Input
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "注文内容に不備があります。必須項目を確認してください。",
			})
			return
		}
		trimInput(&input)
		if input.DeliveryMethod == "Delivery" && input.Address == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "配達を選択した場合は住所を入力してください。",
			})
			return
		}

		id, err := repo.Save(c.Request.Context(), &input)
		if err != nil {
			log.Error("orders.save_failed", slog.String("error", err.Error()))
			respondInternalError(c)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"id":      id,
			"message": "ご注文を受け付けました。",
		})
	}
}

// DeleteHandler は DELETE /api/orders?id= のハンドラーを返します（要ログイン）。
func DeleteHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logging.FromContext(c)

		id, err := strconv.ParseInt(c.Query("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "id を正の整数で指定してください。",
			})
			return
		}

		found, err := repo.Delete(c.Request.Context(), id)
		if err != nil {
			log.Error("orders.delete_failed", slog.String("error", err.Error()))
			respondInternalError(c)
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "指定された注文は存在しません。",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "注文を削除しました。"})
	}
}

// UpdateHandler は PATCH /api/orders のハンドラーを返します（要ログイン）。
func UpdateHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logging.FromContext(c)

		var update Update
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "更新内容に不備があります。",
			})
			return
		}
		if update.Status == nil && update.AdminNotes == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "status または adminNotes を指定してください。",
			})
			return
		}
		if update.Status != nil && !ValidStatus(*update.Status) {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "status の値が不正です。",
			})
			return
		}

		found, err := repo.Update(c.Request.Context(), &update)
		if err != nil {
			log.Error("orders.update_failed", slog.String("error", err.Error()))
			respondInternalError(c)
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "指定された注文は存在しません。",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "注文を更新しました。"})
	}
}

func trimInput(input *Input) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Service = strings.TrimSpace(input.Service)
	input.DeliveryMethod = strings.TrimSpace(input.DeliveryMethod)
	input.Address = strings.TrimSpace(input.Address)
	input.Details = strings.TrimSpace(input.Details)
}

func respondInternalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "INTERNAL_ERROR",
		"message": "サーバー内部でエラーが発生しました。",
	})
}
