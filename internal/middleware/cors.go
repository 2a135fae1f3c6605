package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS 根据允许的来源列表构建跨域中间件，列表为空时放行所有来源。
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := allowedOrigins
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Share-Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
