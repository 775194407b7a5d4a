package httpserver

import (
	"fmt"
	"net/http"

	"bakery-chat/internal/apperr"
	"bakery-chat/internal/relay"
)

// User-facing messages. The widget is Vietnamese; a few API-level errors
// stay in English for compatibility with existing clients.
const (
	msgMethodNotAllowed     = "Method not allowed"
	msgInvalidBody          = "Invalid JSON body"
	msgEmptyMessage         = "Vui lòng nhập tin nhắn"
	msgConversationRequired = "conversation_id is required"
	msgUserInfoRequired     = "user_info is required"
	msgConversationNotFound = "Conversation not found"
	msgParseFailed          = "Failed to parse analysis result"
	msgInternal             = "Internal server error"
	msgConversationDeleted  = "Conversation deleted successfully"
	msgInvalidItems         = "Danh sách sản phẩm không hợp lệ"
	msgOrderCreated         = "Đơn hàng đã được tạo thành công!"
	msgInvalidBudget        = "Ngân sách không hợp lệ"
	msgOrderRequired        = "order_id is required"
	msgStatusRequired       = "status is required"
	msgOrderNotFound        = "Order not found"
	msgUserInfoNotFound     = "User info not found"
	msgUserInfoNotFoundLong = "No user information found for this conversation"
	msgUserInfoFailed       = "Có lỗi xảy ra khi lấy thông tin user"
	msgDataRequired         = "conversation_data is required"

	msgAPIKeyInvalid   = "API key không hợp lệ hoặc đã hết hạn. Vui lòng kiểm tra lại."
	msgRateLimited     = "Đã vượt quá giới hạn API. Vui lòng thử lại sau."
	msgProviderDown    = "Lỗi server OpenAI. Vui lòng thử lại sau."
	msgChatFailed      = "Có lỗi xảy ra khi xử lý yêu cầu"
	msgAnalyzeFailed   = "Có lỗi xảy ra khi phân tích"
	msgWebhookFailed   = "Có lỗi xảy ra khi kết nối với webhook"
	msgWebhookRefused  = "Không thể kết nối đến webhook. Vui lòng kiểm tra URL."
	msgWebhookTimeout  = "Webhook không phản hồi trong thời gian chờ."
	msgWebhookBadData  = "Dữ liệu gửi đến webhook không hợp lệ."
	msgWebhookNoAuth   = "Không có quyền truy cập webhook."
	msgWebhookDenied   = "Truy cập bị từ chối bởi webhook."
	msgWebhookMissing  = "Webhook không tồn tại."
	msgWebhookInternal = "Webhook gặp lỗi nội bộ. Vui lòng thử lại sau."
	msgWebhookDown     = "Webhook tạm thời không khả dụng. Vui lòng thử lại sau."
)

// modelErrorMessage picks the message for a failed model call by the
// provider's status. fallback covers everything else.
func modelErrorMessage(err error, fallback string) string {
	switch status := apperr.UpstreamStatus(err); {
	case status == http.StatusUnauthorized:
		return msgAPIKeyInvalid
	case status == http.StatusTooManyRequests:
		return msgRateLimited
	case status >= http.StatusInternalServerError:
		return msgProviderDown
	default:
		return fallback
	}
}

func webhookErrorMessage(e *relay.Error) string {
	switch e.Kind {
	case relay.KindConnectionRefused:
		return msgWebhookRefused
	case relay.KindTimeout:
		return msgWebhookTimeout
	case relay.KindUpstreamStatus:
	default:
		return msgWebhookFailed
	}

	switch e.UpstreamStatus {
	case http.StatusBadRequest:
		return msgWebhookBadData
	case http.StatusUnauthorized:
		return msgWebhookNoAuth
	case http.StatusForbidden:
		return msgWebhookDenied
	case http.StatusNotFound:
		return msgWebhookMissing
	case http.StatusInternalServerError:
		return msgWebhookInternal
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return msgWebhookDown
	default:
		return fmt.Sprintf("Webhook trả về lỗi: %d", e.UpstreamStatus)
	}
}
