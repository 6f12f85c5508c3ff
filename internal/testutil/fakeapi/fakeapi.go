// fakeapi: тестовый бэкенд клиники поверх httptest.
// Access-токены настоящие JWT (HS256), refresh живёт в HttpOnly cookie
// и ротируется на каждом /auth/refresh.
package fakeapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/dental-clinic/internal/models"
)

const CookieName = "refresh_token"

type account struct {
	profile models.UserProfile
	hash    []byte
}

type claims struct {
	Gen int `json:"gen"`
	jwt.RegisteredClaims
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	secret   []byte
	gen      int
	nextID   int
	accounts map[string]*account
	refresh  map[string]string
	counts   map[string]int
	headers  map[string]http.Header
	pacs     []models.Paciente

	refreshStatus int
	alwaysDeny    bool
	logoutStatus  int
}

// New поднимает сервер; вызывающий закрывает его через Close.
func New() *Server {
	s := &Server{
		secret:   []byte("fakeapi-secret"),
		nextID:   1,
		accounts: make(map[string]*account),
		refresh:  make(map[string]string),
		counts:   make(map[string]int),
		headers:  make(map[string]http.Header),
		pacs: []models.Paciente{
			{ID: 1, Nombre: "Juan Gómez", DNI: "30111222", Telefono: "1155550000"},
		},
	}

	s.Server = httptest.NewServer(s.routes())

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Post("/auth/login", s.login)
	r.Post("/auth/register", s.register)
	r.Post("/auth/refresh", s.refreshToken)
	r.Post("/auth/logout", s.logout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAccess)
		r.Post("/auth/profile", s.profile)
		r.Get("/pacientes", s.listPacientes)
		r.Post("/pacientes", s.createPaciente)
		r.Delete("/pacientes/{id}", s.deletePaciente)
		r.Delete("/pagos/{id}", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}

// AddUser заводит пользователя с паролем.
func (s *Server) AddUser(p models.UserProfile, password string) models.UserProfile {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == 0 {
		p.ID = s.nextID
		s.nextID++
	}
	if p.CreatedAt == "" {
		p.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	s.accounts[p.Email] = &account{profile: p, hash: hash}

	return p
}

// IssueRefresh выдаёт refresh-cookie для email, как если бы вход был раньше.
func (s *Server) IssueRefresh(email string) *http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.newRefreshLocked(email)
}

// ExpireAccess делает все выданные access-токены недействительными.
func (s *Server) ExpireAccess() {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()
}

// FailRefresh: /auth/refresh отвечает status; 0 возвращает нормальную работу.
func (s *Server) FailRefresh(status int) {
	s.mu.Lock()
	s.refreshStatus = status
	s.mu.Unlock()
}

// DenyAll: защищённые маршруты всегда отвечают 401.
func (s *Server) DenyAll(deny bool) {
	s.mu.Lock()
	s.alwaysDeny = deny
	s.mu.Unlock()
}

// FailLogout: /auth/logout отвечает status.
func (s *Server) FailLogout(status int) {
	s.mu.Lock()
	s.logoutStatus = status
	s.mu.Unlock()
}

// Count: сколько раз вызывался маршрут вида "POST /auth/refresh".
func (s *Server) Count(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counts[route]
}

// Header: заголовки последнего запроса на маршрут.
func (s *Server) Header(route string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.headers[route].Clone()
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path

		s.mu.Lock()
		s.counts[route]++
		s.headers[route] = r.Header.Clone()
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		deny := s.alwaysDeny
		gen := s.gen
		s.mu.Unlock()

		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if deny || !ok {
			writeErr(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var c claims
		_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) { return s.secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || c.Gen != gen {
			writeErr(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		s.mu.Lock()
		acc := s.accounts[c.Subject]
		s.mu.Unlock()

		if acc == nil {
			writeErr(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(withProfile(r.Context(), acc.profile)))
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "bad body")
		return
	}

	s.mu.Lock()
	acc := s.accounts[in.Email]
	s.mu.Unlock()

	if acc == nil || bcrypt.CompareHashAndPassword(acc.hash, []byte(in.Password)) != nil {
		writeErr(w, http.StatusUnauthorized, "Credenciales inválidas")
		return
	}

	s.issue(w, acc.profile, http.StatusOK)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "bad body")
		return
	}

	s.mu.Lock()
	_, exists := s.accounts[in.Email]
	s.mu.Unlock()

	if exists {
		writeErr(w, http.StatusConflict, "El email ya está registrado")
		return
	}

	p := s.AddUser(models.UserProfile{Nombre: in.Nombre, Email: in.Email, Role: in.Role}, in.Password)
	s.issue(w, p, http.StatusCreated)
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refreshStatus != 0 {
		writeErr(w, s.refreshStatus, "Refresh failed")
		return
	}

	c, err := r.Cookie(CookieName)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, "Refresh token missing")
		return
	}

	email, ok := s.refresh[c.Value]
	if !ok {
		writeErr(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	delete(s.refresh, c.Value)

	http.SetCookie(w, s.newRefreshLocked(email))
	writeJSON(w, http.StatusOK, models.RefreshResponse{AccessToken: s.accessLocked(email)})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status := s.logoutStatus
	if c, err := r.Cookie(CookieName); err == nil {
		delete(s.refresh, c.Value)
	}
	s.mu.Unlock()

	if status != 0 {
		writeErr(w, status, "Logout failed")
		return
	}

	http.SetCookie(w, &http.Cookie{Name: CookieName, Path: "/", MaxAge: -1, HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, profileFrom(r.Context()))
}

func (s *Server) listPacientes(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := append([]models.Paciente(nil), s.pacs...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createPaciente(w http.ResponseWriter, r *http.Request) {
	var in models.CreatePacienteRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "bad body")
		return
	}

	if in.Nombre == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"statusCode": http.StatusBadRequest,
			"message":    []string{"nombre should not be empty", "nombre must be a string"},
			"error":      "Bad Request",
		})
		return
	}

	s.mu.Lock()
	p := models.Paciente{
		ID:       len(s.pacs) + 1,
		Nombre:   in.Nombre,
		DNI:      in.DNI,
		Telefono: in.Telefono,
	}
	s.pacs = append(s.pacs, p)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) deletePaciente(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.pacs {
		if p.ID == id {
			s.pacs = append(s.pacs[:i], s.pacs[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}

	writeErr(w, http.StatusNotFound, fmt.Sprintf("Paciente %d no encontrado", id))
}

func (s *Server) issue(w http.ResponseWriter, p models.UserProfile, status int) {
	s.mu.Lock()
	cookie := s.newRefreshLocked(p.Email)
	token := s.accessLocked(p.Email)
	s.mu.Unlock()

	http.SetCookie(w, cookie)
	writeJSON(w, status, models.AuthResponse{AccessToken: token, User: p})
}

func (s *Server) newRefreshLocked(email string) *http.Cookie {
	var b [16]byte
	_, _ = rand.Read(b[:])
	v := hex.EncodeToString(b[:])
	s.refresh[v] = email

	return &http.Cookie{
		Name:     CookieName,
		Value:    v,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   7 * 24 * 3600,
	}
}

func (s *Server) accessLocked(email string) string {
	c := claims{
		Gen: s.gen,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		panic(err)
	}

	return signed
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"statusCode": status, "message": msg})
}
