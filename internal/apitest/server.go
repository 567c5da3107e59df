// Package apitest поднимает фальшивый Taskmarket API для тестов клиента.
// Сервер считает вызовы по маршрутам и запоминает заголовки авторизации,
// чтобы тесты могли проверять семантику повторов.
package apitest

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rryowa/taskmarket/internal/models"
)

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type Server struct {
	mu sync.Mutex

	echo *echo.Echo

	// Текущая валидная пара. Выдается register/login, ротируется refresh.
	ValidAccess  string
	ValidRefresh string

	// NextAccess/NextRefresh — пара, которую выдаст следующий refresh.
	NextAccess  string
	NextRefresh string

	// RefreshFails заставляет /auth/refresh отвечать success:false.
	RefreshFails bool

	// RefreshDelay задерживает ответ /auth/refresh. Нужен тестам
	// single-flight: пока первый refresh висит, остальные должны ждать его.
	RefreshDelay time.Duration

	// AlwaysUnauthorized: защищенные маршруты отвечают 401 даже на
	// валидный токен. Проверяет, что повтор не повторяется.
	AlwaysUnauthorized bool

	Profile       models.UserProfile
	Tasks         []models.Task
	Categories    []models.Category
	Conversations []models.Conversation

	refreshSeq int
	calls      map[string]int
	lastAuth   map[string]string
	lastQuery  map[string]string
	registered map[string]bool
}

func New() *Server {
	s := &Server{
		ValidAccess:  "A1",
		ValidRefresh: "R1",
		Profile:      models.UserProfile(`{"id":"u1","name":"Test User","email":"user@example.com"}`),
		calls:        make(map[string]int),
		lastAuth:     make(map[string]string),
		lastQuery:    make(map[string]string),
		registered:   make(map[string]bool),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.POST("/auth/register", s.handleSignIn)
	e.POST("/auth/login", s.handleSignIn)
	e.POST("/auth/refresh", s.handleRefresh)
	e.GET("/auth/me", s.handleMe)
	e.GET("/tasks", s.handleTasks)
	e.GET("/tasks/my-tasks", s.handleMyTasks)
	e.GET("/tasks/:id", s.handleTask)
	e.POST("/tasks", s.handleCreateTask)
	e.POST("/tasks/:id/offers", s.handleOffer)
	e.GET("/categories", s.handleCategories)
	e.GET("/chat/conversations", s.handleConversations)
	e.POST("/chat/tasks/:id/conversations", s.handleCreateConversation)

	s.echo = e
	return s
}

func (s *Server) Handler() http.Handler { return s.echo }

// CallCount возвращает число вызовов зарегистрированного маршрута,
// например ("GET", "/tasks/my-tasks").
func (s *Server) CallCount(method, route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+route]
}

// AuthHeader возвращает заголовок Authorization последнего вызова маршрута.
func (s *Server) AuthHeader(method, route string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth[method+" "+route]
}

// RawQuery возвращает query-строку последнего вызова маршрута.
func (s *Server) RawQuery(method, route string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery[method+" "+route]
}

func (s *Server) record(c echo.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := c.Request().Method + " " + c.Path()
	s.calls[key]++
	s.lastAuth[key] = c.Request().Header.Get("Authorization")
	s.lastQuery[key] = c.Request().URL.RawQuery
}

func (s *Server) authorized(c echo.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AlwaysUnauthorized {
		return false
	}
	return s.ValidAccess != "" &&
		c.Request().Header.Get("Authorization") == "Bearer "+s.ValidAccess
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, envelope{Success: false, Message: "unauthorized"})
}

func (s *Server) handleSignIn(c echo.Context) error {
	s.record(c)

	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, envelope{Success: false, Message: "invalid body"})
	}
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, envelope{
			Success: false,
			Message: "validation failed",
			Errors:  map[string]string{"email": "email is required"},
		})
	}

	s.mu.Lock()
	if c.Path() == "/auth/register" && s.registered[req.Email] {
		s.mu.Unlock()
		return c.JSON(http.StatusBadRequest, envelope{
			Success: false,
			Message: "validation failed",
			Errors:  map[string]string{"email": "email already taken"},
		})
	}
	s.registered[req.Email] = true
	access, refresh := s.ValidAccess, s.ValidRefresh
	profile := s.Profile
	s.mu.Unlock()

	return c.JSON(http.StatusOK, envelope{Success: true, Data: models.AuthPayload{
		User:         profile,
		AccessToken:  access,
		RefreshToken: refresh,
	}})
}

func (s *Server) handleRefresh(c echo.Context) error {
	s.record(c)

	var req models.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, envelope{Success: false, Message: "invalid body"})
	}

	s.mu.Lock()
	delay := s.RefreshDelay
	s.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.RefreshFails || req.RefreshToken != s.ValidRefresh {
		return c.JSON(http.StatusOK, envelope{Success: false, Message: "invalid refresh token"})
	}

	s.refreshSeq++
	access, refresh := s.NextAccess, s.NextRefresh
	if access == "" {
		access = fmt.Sprintf("A%d", s.refreshSeq+1)
	}
	if refresh == "" {
		refresh = fmt.Sprintf("R%d", s.refreshSeq+1)
	}
	s.ValidAccess, s.ValidRefresh = access, refresh

	return c.JSON(http.StatusOK, envelope{Success: true, Data: models.AuthPayload{
		AccessToken:  access,
		RefreshToken: refresh,
	}})
}

func (s *Server) handleMe(c echo.Context) error {
	s.record(c)
	if !s.authorized(c) {
		return unauthorized(c)
	}

	s.mu.Lock()
	profile := s.Profile
	s.mu.Unlock()
	return c.JSON(http.StatusOK, envelope{Success: true, Data: profile})
}

func (s *Server) handleTasks(c echo.Context) error {
	s.record(c)
	return s.taskPage(c)
}

func (s *Server) handleMyTasks(c echo.Context) error {
	s.record(c)
	if !s.authorized(c) {
		return unauthorized(c)
	}
	return s.taskPage(c)
}

func (s *Server) taskPage(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 15
	}

	s.mu.Lock()
	tasks := append([]models.Task(nil), s.Tasks...)
	s.mu.Unlock()

	total := len(tasks)
	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return c.JSON(http.StatusOK, envelope{Success: true, Data: models.TaskPage{
		Tasks: tasks[start:end],
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}})
}

func (s *Server) handleTask(c echo.Context) error {
	s.record(c)

	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.Tasks {
		if t.ID == id {
			return c.JSON(http.StatusOK, envelope{Success: true, Data: models.TaskDetail{Task: t}})
		}
	}
	return c.JSON(http.StatusNotFound, envelope{Success: false, Message: "task not found"})
}

func (s *Server) handleCreateTask(c echo.Context) error {
	s.record(c)
	if !s.authorized(c) {
		return unauthorized(c)
	}

	var req models.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, envelope{Success: false, Message: "invalid body"})
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, envelope{
			Success: false,
			Message: "validation failed",
			Errors:  map[string]string{"title": "title is required"},
		})
	}

	s.mu.Lock()
	task := models.Task{
		ID:          fmt.Sprintf("t%d", len(s.Tasks)+1),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Budget:      req.Budget,
		Status:      models.TaskStatusOpen,
	}
	s.Tasks = append(s.Tasks, task)
	s.mu.Unlock()

	return c.JSON(http.StatusCreated, envelope{Success: true, Message: "task created", Data: task})
}

func (s *Server) handleOffer(c echo.Context) error {
	s.record(c)
	if !s.authorized(c) {
		return unauthorized(c)
	}

	var req models.OfferRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, envelope{Success: false, Message: "invalid body"})
	}

	return c.JSON(http.StatusCreated, envelope{Success: true, Data: models.Offer{
		ID:            "o1",
		TaskID:        c.Param("id"),
		Price:         req.Price,
		Description:   req.Description,
		EstimatedTime: req.EstimatedTime,
	}})
}

func (s *Server) handleCategories(c echo.Context) error {
	s.record(c)

	s.mu.Lock()
	categories := append([]models.Category(nil), s.Categories...)
	s.mu.Unlock()

	return c.JSON(http.StatusOK, envelope{Success: true, Data: map[string]interface{}{
		"categories": categories,
	}})
}

func (s *Server) handleConversations(c echo.Context) error {
	s.record(c)
	if !s.authorized(c) {
		return unauthorized(c)
	}

	s.mu.Lock()
	conversations := append([]models.Conversation(nil), s.Conversations...)
	s.mu.Unlock()

	return c.JSON(http.StatusOK, envelope{Success: true, Data: conversations})
}

func (s *Server) handleCreateConversation(c echo.Context) error {
	s.record(c)
	if !s.authorized(c) {
		return unauthorized(c)
	}

	var req models.CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, envelope{Success: false, Message: "invalid body"})
	}
	if req.TaskerID == "" {
		return c.JSON(http.StatusBadRequest, envelope{Success: false, Message: "taskerId is required"})
	}

	return c.JSON(http.StatusCreated, envelope{Success: true, Data: models.CreatedConversation{
		ID: "c-" + c.Param("id"),
	}})
}
