package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// NewMemoryJar: cookie jar без сохранения на диск.
func NewMemoryJar() http.CookieJar {
	j, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return j
}

// storedCookie: запись cookie на диске. url нужен, чтобы вернуть
// cookie в jar с тем же скоупом домена и пути.
type storedCookie struct {
	URL      string    `json:"url"`
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

func (s storedCookie) key() string { return s.Domain + "|" + s.Path + "|" + s.Name }

// FileJar: cookie jar, который переживает перезапуск процесса.
// Так CLI ведёт себя как браузер: refresh-cookie остаётся между запусками.
type FileJar struct {
	path string
	log  *slog.Logger

	mu      sync.Mutex
	inner   *cookiejar.Jar
	entries map[string]storedCookie
	now     func() time.Time
}

// OpenFileJar читает jar из path; отсутствие файла даёт пустой jar.
// log получает ошибки записи; nil означает slog.Default().
func OpenFileJar(path string, log *slog.Logger) (*FileJar, error) {
	const op = "api.OpenFileJar"

	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if log == nil {
		log = slog.Default()
	}

	j := &FileJar{
		path:    path,
		log:     log,
		inner:   inner,
		entries: make(map[string]storedCookie),
		now:     time.Now,
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return j, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("%s: decode %s: %w", op, path, err)
	}

	now := j.now()
	for _, s := range stored {
		if !s.Expires.IsZero() && !s.Expires.After(now) {
			continue
		}

		u, err := url.Parse(s.URL)
		if err != nil {
			continue
		}

		j.entries[s.key()] = s
		j.inner.SetCookies(u, []*http.Cookie{{
			Name:     s.Name,
			Value:    s.Value,
			Path:     s.Path,
			Domain:   s.Domain,
			Expires:  s.Expires,
			Secure:   s.Secure,
			HttpOnly: s.HttpOnly,
		}})
	}

	return j, nil
}

func (j *FileJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.inner.Cookies(u)
}

// SetCookies применяет cookie ответа и сразу сохраняет jar.
// Ошибка записи не ломает запрос: jar в памяти уже обновлён.
func (j *FileJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.inner.SetCookies(u, cookies)

	now := j.now()
	for _, c := range cookies {
		s := storedCookie{
			URL:      (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}).String(),
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}

		switch {
		case c.MaxAge < 0:
			delete(j.entries, s.key())
			continue
		case c.MaxAge > 0:
			s.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}

		if !s.Expires.IsZero() && !s.Expires.After(now) {
			delete(j.entries, s.key())
			continue
		}

		j.entries[s.key()] = s
	}

	if err := j.save(); err != nil {
		j.log.Warn("cookie_jar_save_failed", slog.String("path", j.path), slog.String("err", err.Error()))
	}
}

// Clear забывает все cookie и удаляет файл.
func (j *FileJar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return err
	}

	j.inner = inner
	j.entries = make(map[string]storedCookie)

	if err := os.Remove(j.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// save: атомарная запись через временный файл, права 0600.
func (j *FileJar) save() error {
	list := make([]storedCookie, 0, len(j.entries))
	for _, s := range j.entries {
		list = append(list, s)
	}

	data, err := json.Marshal(list)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(j.path), ".cookies-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), j.path)
}
