package request

// UserIdUri 路径参数 :userId
type UserIdUri struct {
	UserId string `uri:"userId" json:"userId" binding:"required"`
}

// CurrentUserUri 路径参数 :currentUserId
type CurrentUserUri struct {
	CurrentUserId string `uri:"currentUserId" json:"currentUserId" binding:"required"`
}

// ChatIdUri 路径参数 :chatId
type ChatIdUri struct {
	ChatId string `uri:"chatId" json:"chatId" binding:"required"`
}

// GetMessagesRequest 消息分页查询参数
type GetMessagesRequest struct {
	Page  int `form:"page" json:"page" binding:"omitempty,min=1,max=1000000"`
	Limit int `form:"limit" json:"limit" binding:"omitempty,min=1,max=200"`
}

// SearchUsersRequest 用户搜索参数
type SearchUsersRequest struct {
	Q string `form:"q" json:"q"`
}
