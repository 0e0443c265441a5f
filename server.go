package folio

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Server returns an echo instance serving the build directory with
// directory index resolution. It does not build; call Build first. The
// directory is read from the config once, here; handlers never touch
// a.Config, so a watcher may reload it while the server runs.
func (a *App) Server() *echo.Echo {
	root := a.Config.BuildPath()
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger = a.Logger
	e.HTTPErrorHandler = a.httpErrorHandler(e, root)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			switch path.Ext(c.Request().URL.Path) {
			case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".woff2":
				return true
			}
			return false
		},
	}))

	e.Use(cacheControlMiddleware)

	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Root:  root,
		Index: "index.html",
	}))
	return e
}

// cacheControlMiddleware keeps browsers from holding on to pages between
// rebuilds.
func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := c.Request().URL.Path
		switch {
		case strings.HasSuffix(p, "/"), path.Ext(p) == ".html":
			c.Response().Header().Set("Cache-Control", "no-cache")
		case p == "/sitemap.xml" || p == "/feed.xml":
			c.Response().Header().Set("Cache-Control", "no-cache")
		default:
			c.Response().Header().Set("Cache-Control", "public, max-age=60")
		}
		return next(c)
	}
}

// httpErrorHandler answers 404s with root/404.html when the site has one.
func (a *App) httpErrorHandler(e *echo.Echo, root string) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		he, ok := err.(*echo.HTTPError)
		if ok && he.Code == http.StatusNotFound {
			for _, name := range []string{"404.html", "404/index.html"} {
				page, readErr := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
				if readErr == nil {
					_ = c.HTMLBlob(http.StatusNotFound, page)
					return
				}
			}
		}
		code := http.StatusInternalServerError
		if ok {
			code = he.Code
		}
		if code >= 500 {
			c.Logger().Errorf("server error: %v", err)
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}
