package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ivlev/sketch2video/internal/config"
	"github.com/ivlev/sketch2video/internal/engine"
	"github.com/ivlev/sketch2video/internal/preview"
	"github.com/ivlev/sketch2video/internal/scene"
	"github.com/ivlev/sketch2video/internal/source"
	"github.com/ivlev/sketch2video/internal/system"
	"github.com/ivlev/sketch2video/internal/video"
)

var version = "dev"

func main() {
	// .env необязателен
	_ = godotenv.Load()

	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	for _, d := range []string{"input", "output"} {
		os.MkdirAll(d, 0755)
	}

	inputPtr := flag.String("input", "", "Проект (.yaml), PDF, изображение или папка (по умолчанию: самый свежий проект или PDF в input/)")
	outputPtr := flag.String("output", "", "Путь к видео (если пусто, генерируется автоматически в output/)")
	framesPtr := flag.String("frames", "", "Папка для PNG-кадров вместо видео")
	widthPtr := flag.Int("width", 0, "Ширина (0 - из проекта)")
	heightPtr := flag.Int("height", 0, "Высота (0 - из проекта)")
	fpsPtr := flag.Int("fps", 0, "FPS (0 - из проекта)")
	workersPtr := flag.Int("workers", envInt("SKETCH2VIDEO_WORKERS", runtime.NumCPU()), "Потоки рендеринга")
	encoderPtr := flag.String("encoder", os.Getenv("SKETCH2VIDEO_ENCODER"), "Кодек ffmpeg (по умолчанию: лучший доступный h264)")
	qualityPtr := flag.Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	statsPtr := flag.Bool("stats", true, "Отчет о производительности и benchmark.log")
	servePtr := flag.Bool("serve", false, "Запустить сервер предпросмотра вместо экспорта")
	addrPtr := flag.String("addr", envString("SKETCH2VIDEO_ADDR", ":8080"), "Адрес сервера предпросмотра")
	flag.Parse()

	inputPath := *inputPtr
	if inputPath == "" {
		latest, err := findDefaultInput("input")
		if err != nil {
			log.Fatalf("[-] Ошибка: %v. Положите проект .yaml или PDF в input/", err)
		}
		inputPath = latest
		fmt.Printf("[*] Выбран файл: %s\n", inputPath)
	}

	if *servePtr {
		if err := serve(inputPath, *addrPtr); err != nil {
			log.Fatalf("[-] Ошибка сервера: %v", err)
		}
		return
	}

	sc, loader, err := loadScene(inputPath, *widthPtr, *heightPtr)
	if err != nil {
		log.Fatalf("[-] Ошибка загрузки проекта: %v", err)
	}
	if *fpsPtr > 0 {
		sc.FPS = *fpsPtr
	}

	cfg := &config.Config{
		InputPath:    inputPath,
		OutputVideo:  *outputPtr,
		FramesDir:    *framesPtr,
		Width:        sc.Width,
		Height:       sc.Height,
		FPS:          sc.FPS,
		Workers:      *workersPtr,
		VideoEncoder: *encoderPtr,
		Quality:      *qualityPtr,
		ShowStats:    *statsPtr,
		BuildVersion: version,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, result, err := openSink(ctx, cfg)
	if err != nil {
		log.Fatalf("[-] Ошибка инициализации вывода: %v", err)
	}

	project := engine.NewProject(cfg, sc, loader, sink)
	if err := project.Run(ctx); err != nil {
		sink.Close()
		log.Fatalf("[-] Ошибка проекта: %v", err)
	}

	fmt.Printf("[+++] Успех! Результат: %s\n", result)
}

// loadScene reads a project file, or builds a quick project from a PDF,
// an image or a folder of images.
func loadScene(inputPath string, width, height int) (*scene.Project, *source.Loader, error) {
	if isProjectFile(inputPath) {
		sc, err := scene.ReadProject(inputPath)
		if err != nil {
			return nil, nil, err
		}
		if width > 0 {
			sc.Width = width
		}
		if height > 0 {
			sc.Height = height
		}
		return sc, source.NewLoader(filepath.Dir(inputPath)), nil
	}

	if fi, err := os.Stat(inputPath); err == nil && fi.IsDir() {
		if latest, err := scene.FindLatestProject(inputPath); err == nil {
			fmt.Printf("[*] Найден проект: %s\n", latest)
			return loadScene(latest, width, height)
		}
	}

	loader := source.NewLoader("")
	sc, err := scene.FromSource(inputPath, loader, width, height)
	if err != nil {
		return nil, nil, err
	}
	fmt.Printf("[*] Быстрый проект из %s: кадров %d\n", inputPath, len(sc.Frames))

	// Сохраняем проект, чтобы его можно было править и открыть через -serve
	if path, err := scene.SaveProject(sc, "input"); err != nil {
		log.Printf("[!] Не удалось сохранить проект: %v", err)
	} else {
		fmt.Printf("[*] Проект сохранен: %s\n", path)
	}
	return sc, loader, nil
}

// openSink picks ffmpeg when it is available and PNG frames otherwise.
func openSink(ctx context.Context, cfg *config.Config) (video.FrameSink, string, error) {
	if cfg.FramesDir == "" && !system.HasFFmpeg() {
		cfg.FramesDir = filepath.Join("output", outputName(cfg.InputPath, ""))
		fmt.Println("[!] ffmpeg не найден, кадры будут сохранены как PNG")
	}
	if cfg.FramesDir != "" {
		seq, err := video.NewPNGSequence(cfg.FramesDir)
		return seq, cfg.FramesDir, err
	}

	if cfg.OutputVideo == "" {
		cfg.OutputVideo = filepath.Join("output", outputName(cfg.InputPath, ".mp4"))
	}
	if cfg.VideoEncoder == "" {
		cfg.VideoEncoder, _ = system.GetBestH264Encoder()
	}
	if cfg.VideoEncoder != "libx264" {
		fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", cfg.VideoEncoder)
	}
	if cfg.Quality == 0 {
		switch cfg.VideoEncoder {
		case "h264_videotoolbox":
			cfg.Quality = 75
		case "h264_nvenc":
			cfg.Quality = 28
		default:
			cfg.Quality = 23
		}
	}

	enc, err := video.NewFFmpegEncoder(ctx, cfg.OutputVideo, video.EncoderParams{
		Width:   cfg.Width,
		Height:  cfg.Height,
		FPS:     cfg.FPS,
		Encoder: cfg.VideoEncoder,
		Quality: cfg.Quality,
	})
	return enc, cfg.OutputVideo, err
}

func serve(inputPath, addr string) error {
	if !isProjectFile(inputPath) {
		return fmt.Errorf("предпросмотр работает только с файлом проекта: %s", inputPath)
	}
	s, err := preview.New(inputPath, 0)
	if err != nil {
		return err
	}
	defer s.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("[*] Предпросмотр: http://%s/frame.png (POST /reload после правки %s)\n", displayAddr(addr), filepath.Base(inputPath))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// findDefaultInput prefers the newest project in dir and falls back to the
// newest PDF.
func findDefaultInput(dir string) (string, error) {
	latest, err := scene.FindLatestProject(dir)
	if err == nil {
		return latest, nil
	}
	// Проекта нет: берем самый свежий PDF
	if pdf, pdfErr := system.FindLatestPDF(dir); pdfErr == nil {
		return pdf, nil
	}
	return "", err
}

func isProjectFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func outputName(inputPath, ext string) string {
	baseName := filepath.Base(inputPath)
	nameOnly := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	cleanName := strings.ReplaceAll(nameOnly, " ", "_")
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return fmt.Sprintf("%s_%s%s", cleanName, timestamp, ext)
}

func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
