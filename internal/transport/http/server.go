package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatbot-server/internal/config"
	"github.com/vovakirdan/chatbot-server/internal/metrics"
	"github.com/vovakirdan/chatbot-server/internal/service/friends"
	"github.com/vovakirdan/chatbot-server/internal/service/groups"
	"github.com/vovakirdan/chatbot-server/internal/service/messages"
	"github.com/vovakirdan/chatbot-server/internal/service/users"
)

// Services bundles the domain services exposed over HTTP.
type Services struct {
	Users    *users.Service
	Friends  *friends.Service
	Messages *messages.Service
	Groups   *groups.Service
}

// NewRouter builds the gin engine with middleware and every route.
// m may be nil, in which case /metrics is not mounted.
func NewRouter(svc Services, cfg config.Config, m *metrics.Metrics, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	if m != nil {
		router.Use(MetricsMiddleware(m))
	}
	router.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst, m))

	router.GET("/health", healthHandler)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	userHandlers := NewUserHandlers(svc.Users, m, logger)
	usersGroup := router.Group("/users")
	{
		usersGroup.POST("/register", userHandlers.Register)
		usersGroup.POST("/login", userHandlers.Login)
		usersGroup.GET("/all", userHandlers.All)
		usersGroup.GET("/:id/name", userHandlers.NameByID)
		usersGroup.GET("/name/:name/id", userHandlers.IDByName)
	}

	friendsHandlers := NewFriendsHandlers(svc.Friends, m, logger)
	friendsGroup := router.Group("/friends")
	{
		friendsGroup.POST("/add", friendsHandlers.SendRequest)
		friendsGroup.POST("/accept", friendsHandlers.AcceptRequest)
		friendsGroup.POST("/reject", friendsHandlers.RejectRequest)
		friendsGroup.POST("/remove", friendsHandlers.RemoveFriend)
		friendsGroup.GET("", friendsHandlers.ListFriends)
		friendsGroup.GET("/pending", friendsHandlers.ListPending)
		friendsGroup.GET("/friendsWithNames", friendsHandlers.ListFriendNames)
		friendsGroup.GET("/friendsWithIds", friendsHandlers.ListFriendIDs)
	}

	messageHandlers := NewMessageHandlers(svc.Messages, m, logger)
	messagesGroup := router.Group("/messages")
	{
		messagesGroup.POST("/send", messageHandlers.Send)
		messagesGroup.GET("/receiver", messageHandlers.ByReceiver)
		messagesGroup.GET("/all", messageHandlers.All)
		messagesGroup.GET("/conversation", messageHandlers.Conversation)
	}

	groupHandlers := NewGroupHandlers(svc.Groups, m, logger)
	groupsGroup := router.Group("/groups")
	{
		groupsGroup.POST("/create", groupHandlers.Create)
		groupsGroup.POST("/add-member", groupHandlers.AddMember)
		groupsGroup.POST("/send-message", groupHandlers.SendMessage)
		groupsGroup.POST("/messages", groupHandlers.Messages)
		groupsGroup.POST("/members", groupHandlers.Members)
		groupsGroup.GET("/user/:userId", groupHandlers.UserGroups)
	}

	return router
}

// NewServer builds an HTTP server around the router.
func NewServer(svc Services, cfg config.Config, m *metrics.Metrics, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(svc, cfg, m, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
