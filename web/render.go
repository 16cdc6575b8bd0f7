package web

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/askboard/askboard/config"

	"github.com/gin-gonic/gin"
)

//go:embed assets
var assetsFS embed.FS

//go:embed html/*
var htmlFS embed.FS

//go:embed translation/*
var i18nFS embed.FS

var templatePatterns = []string{"html/*.html", "html/common/*.html"}

var startTime = time.Now()

// stableFS reports startTime as the modification time of every file so
// embedded assets get a usable Last-Modified header.
type stableFS struct {
	fs.FS
}

func (f stableFS) Open(name string) (fs.File, error) {
	file, err := f.FS.Open(name)
	if err != nil {
		return nil, err
	}
	return stableFile{File: file}, nil
}

type stableFile struct {
	fs.File
}

func (f stableFile) Stat() (fs.FileInfo, error) {
	info, err := f.File.Stat()
	if err != nil {
		return nil, err
	}
	return stableInfo{FileInfo: info}, nil
}

func (f stableFile) Seek(offset int64, whence int) (int64, error) {
	if s, ok := f.File.(io.Seeker); ok {
		return s.Seek(offset, whence)
	}
	return 0, fs.ErrInvalid
}

type stableInfo struct {
	fs.FileInfo
}

func (stableInfo) ModTime() time.Time {
	return startTime
}

// mountViews installs templates and static assets. In debug mode both are
// read from web/ in the working directory so they can be edited live.
func mountViews(engine *gin.Engine, basePath string, funcMap template.FuncMap) error {
	engine.SetFuncMap(funcMap)

	if config.IsDebug() {
		files := make([]string, 0)
		for _, pattern := range templatePatterns {
			matches, err := filepath.Glob(filepath.Join("web", pattern))
			if err != nil {
				return err
			}
			files = append(files, matches...)
		}
		engine.LoadHTMLFiles(files...)
		engine.StaticFS(basePath+"assets", http.FS(os.DirFS("web/assets")))
		return nil
	}

	tpl, err := template.New("").Funcs(funcMap).ParseFS(htmlFS, templatePatterns...)
	if err != nil {
		return err
	}
	engine.SetHTMLTemplate(tpl)

	assets, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		return err
	}
	engine.StaticFS(basePath+"assets", http.FS(stableFS{FS: assets}))
	return nil
}
