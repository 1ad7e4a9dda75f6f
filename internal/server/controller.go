package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"stakevault/internal/ai"
	"stakevault/internal/api"
	"stakevault/internal/api/jwt"
	"stakevault/internal/api/middleware"
	"stakevault/internal/identity"
	"stakevault/internal/stakeapi"
)

var App *stakeapi.App

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// keepalive tracks the last pong. The pong handler runs on the reader
// goroutine while the ping loop polls, so access is guarded.
type keepalive struct {
	mu   sync.Mutex
	last time.Time
}

func newKeepalive() *keepalive {
	return &keepalive{last: time.Now()}
}

func (k *keepalive) touch() {
	k.mu.Lock()
	k.last = time.Now()
	k.mu.Unlock()
}

func (k *keepalive) idle(timeout time.Duration) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return time.Since(k.last) > timeout
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(429, "Too many requests. Try again in "+time.Until(info.ResetTime).String())
}

// buildSessions wires the account engine to its collaborators: the gorm
// store, the external credential service, the asynq notifier and the AI
// advisor.
func buildSessions(app *stakeapi.App) *stakeapi.Sessions {
	store, err := stakeapi.NewGormStore(app.Db)
	if err != nil {
		log.Fatal("Failed to migrate the db: ", err)
	}
	cfg := stakeapi.LoadAppConfig(context.Background(), app.Rdb)
	sessions := stakeapi.NewSessions(store, cfg)
	sessions.Identity = identity.New(os.Getenv("IDENTITY_URL"))
	sessions.Notifier = stakeapi.NewAsynqNotifier(app.Aqc)
	sessions.Advisor = ai.New()
	return sessions
}

func ApiInit() { // Run Api Server
	App = stakeapi.Init()
	sessions := buildSessions(App)
	router := gin.Default()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	// Each ip can make at most 100 requests per second
	store := ratelimit.RedisStore(&ratelimit.RedisOptions{
		RedisClient: redis.NewClient(&redis.Options{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       1,
		}),
		Rate:  time.Second,
		Limit: 100,
	})
	mw := ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://0.0.0.0:3000",
			"http://localhost:3000",
		},
		AllowHeaders:  []string{"Origin", "Access-Control-Allow-Origin", "Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		AllowMethods:  []string{"GET, POST, OPTIONS, PUT, DELETE"},
		MaxAge:        24 * time.Hour,
	}))
	router.Use(func(c *gin.Context) {
		c.Set("app", App)
		c.Set("sessions", sessions)
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ws", mw, wsHandler)
	router.GET("/ws/", mw, wsHandler)
	auth := router.Group("/auth/")
	{
		auth.POST("/signup", mw, api.Signup)
		auth.POST("/signup/", mw, api.Signup)
		auth.POST("/signin", mw, api.Signin)
		auth.POST("/signin/", mw, api.Signin)
		auth.POST("/signout", mw, api.Signout)
		auth.POST("/signout/", mw, api.Signout)
	}
	users := router.Group("/users/").Use(middleware.Auth())
	{
		users.GET("/me", mw, api.GetUser)
		users.GET("/me/", mw, api.GetUser)
		users.PUT("/me/address", mw, api.SetWithdrawalAddress)
		users.PUT("/me/address/", mw, api.SetWithdrawalAddress)
		users.GET("/tx", mw, api.GetTransactionsList)
		users.GET("/tx/", mw, api.GetTransactionsList)
		users.GET("/ref", mw, api.GetReferrals)
		users.GET("/ref/", mw, api.GetReferrals)
		users.GET("/team", mw, api.GetTeam)
		users.GET("/team/", mw, api.GetTeam)
		users.GET("/team/analysis", mw, api.AnalyzeTeam)
		users.GET("/team/analysis/", mw, api.AnalyzeTeam)
		users.GET("/message", mw, api.GetPriorityMessage)
		users.GET("/message/", mw, api.GetPriorityMessage)
		users.GET("/announcements", mw, api.GetAnnouncements)
		users.GET("/announcements/", mw, api.GetAnnouncements)
		users.POST("/announcements/:id/read", mw, api.MarkAnnouncementRead)
		users.POST("/announcements/:id/read/", mw, api.MarkAnnouncementRead)
	}
	tx := router.Group("/tx/").Use(middleware.Auth())
	{
		tx.POST("/deposit", mw, api.SubmitDeposit)
		tx.POST("/deposit/", mw, api.SubmitDeposit)
		tx.POST("/withdraw", mw, api.SubmitWithdraw)
		tx.POST("/withdraw/", mw, api.SubmitWithdraw)
	}
	admin := router.Group("/admin/").Use(middleware.Auth(), middleware.Admin())
	{
		admin.GET("/pending", mw, api.GetPendingRequests)
		admin.GET("/pending/", mw, api.GetPendingRequests)
		admin.POST("/deposit/:txid/approve", mw, api.ApproveDeposit)
		admin.POST("/deposit/:txid/decline", mw, api.DeclineDeposit)
		admin.POST("/withdraw/:txid/approve", mw, api.ApproveWithdrawal)
		admin.POST("/withdraw/:txid/decline", mw, api.DeclineWithdrawal)
		admin.POST("/users/:id/balance", mw, api.AdjustBalance)
		admin.POST("/users/:id/level", mw, api.AdjustLevel)
		admin.PUT("/users/:id/email", mw, api.UpdateEmail)
		admin.PUT("/users/:id/address", mw, api.UpdateWithdrawalAddress)
		admin.POST("/users/:id/announce", mw, api.Announce)
		admin.GET("/settings", mw, api.GetSettings)
		admin.GET("/settings/", mw, api.GetSettings)
		admin.PUT("/settings", mw, api.UpdateSettings)
		admin.PUT("/settings/", mw, api.UpdateSettings)
	}
	fmt.Println("[ StakeVault is up and listening to :8000 ]")
	if err := router.Run(":8000"); err != nil {
		log.Fatal("Failed to run StakeVault on :8000: ", err)
	}
}

// wsHandler keeps a client in sync: an account snapshot is pushed on connect
// and whenever the client sends "sync". The connection is kept alive with
// pings and dropped after a missed pong window.
func wsHandler(c *gin.Context) {
	token := c.DefaultQuery("token", "")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	email, _, err := jwt.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	sessions := c.MustGet("sessions").(*stakeapi.Sessions)
	if _, err := sessions.SnapshotByEmail(email); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to set websocket upgrade: %+v", err)
		return
	}
	defer conn.Close()
	pongs := newKeepalive()
	var mu sync.Mutex // Serializes writes to the websocket connection
	conn.SetPongHandler(func(string) error {
		pongs.touch()
		return nil
	})
	pingPeriod := 3 * time.Second
	timeout := 9 * time.Second
	pushSnapshot := func() bool {
		snap, err := sessions.SnapshotByEmail(email)
		if err != nil {
			log.Println("Socket: Failed to load snapshot:", err)
			return false
		}
		jsonData, err := json.Marshal(gin.H{"target": "sync", "user": snap})
		if err != nil {
			log.Println("Socket: Failed to serialize data:", err)
			return false
		}
		mu.Lock()
		defer mu.Unlock()
		if err := conn.WriteMessage(websocket.TextMessage, jsonData); err != nil {
			log.Println("Socket: Failed to send data:", err)
			return false
		}
		return true
	}
	if !pushSnapshot() {
		return
	}
	go func() {
		defer conn.Close()
		for {
			messageType, p, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if messageType == websocket.TextMessage && string(p) == "sync" {
				if !pushSnapshot() {
					return
				}
			}
		}
	}()
	for {
		if pongs.idle(timeout) {
			log.Println("Socket: Client did not respond to ping, closing connection")
			return
		}
		mu.Lock()
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			mu.Unlock()
			return
		}
		mu.Unlock()
		time.Sleep(pingPeriod)
	}
}
