package logging

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
)

// Компоненты сервиса, у каждого свой логгер и свой файл.
const (
	ComponentServer  = "server"
	ComponentHTTP    = "http"
	ComponentSampler = "sampler"
	ComponentStorage = "storage"
	ComponentCache   = "cache"
)

// Components перечисляет известные компоненты.
func Components() []string {
	return []string{ComponentCache, ComponentHTTP, ComponentSampler, ComponentServer, ComponentStorage}
}

// Levels — пороги консоли и файла одного компонента.
type Levels struct {
	Console LogLevel
	File    LogLevel
}

// ParseLevels разбирает строку "CONSOLE" или "CONSOLE/FILE".
// Без второй части порог файла берётся из defaults.
func ParseLevels(value string, defaults Levels) (Levels, error) {
	console, file, hasFile := strings.Cut(value, "/")
	var err error
	levels := defaults
	if levels.Console, err = ParseLevel(console); err != nil {
		return defaults, err
	}
	if hasFile {
		if levels.File, err = ParseLevel(file); err != nil {
			return defaults, err
		}
	}
	return levels, nil
}

// String возвращает запись в формате ParseLevels.
func (l Levels) String() string {
	return l.Console.String() + "/" + l.File.String()
}

// LoggerManager хранит логгеры компонентов и пороги, заданные конфигурацией.
// Пороги применяются и к уже созданным логгерам, и к создаваемым позже.
type LoggerManager struct {
	mu        sync.RWMutex
	loggers   map[string]*Logger
	overrides map[string]Levels
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = newLoggerManager()
	})
	return globalManager
}

func newLoggerManager() *LoggerManager {
	return &LoggerManager{
		loggers:   make(map[string]*Logger),
		overrides: make(map[string]Levels),
	}
}

// GetLogger возвращает логгер компонента, создавая его при необходимости
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.RLock()
	logger, ok := lm.loggers[component]
	lm.mu.RUnlock()
	if ok {
		return logger, nil
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if logger, ok := lm.loggers[component]; ok {
		return logger, nil
	}

	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger for %s: %w", component, err)
	}
	if levels, ok := lm.overrides[component]; ok {
		logger.SetLevels(levels.Console, levels.File)
	}
	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger возвращает логгер или консольный логгер без файла,
// если файл создать не удалось.
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err == nil {
		return logger
	}

	opts := options()
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	levels := Levels{Console: opts.ConsoleLevel, File: opts.FileLevel}
	lm.mu.RLock()
	if override, ok := lm.overrides[component]; ok {
		levels = override
	}
	lm.mu.RUnlock()

	fallback := &Logger{
		component:       component,
		consoleLogger:   log.New(console, "", log.LstdFlags),
		minConsoleLevel: levels.Console,
		minFileLevel:    levels.File,
	}
	fallback.Warn("Файл логов недоступен, только консоль: %v", err)
	return fallback
}

// ConfigureComponents задаёт пороги по именам компонентов, значения
// в формате ParseLevels. Неизвестный уровень отклоняет всю карту.
func (lm *LoggerManager) ConfigureComponents(levels map[string]string) error {
	opts := options()
	defaults := Levels{Console: opts.ConsoleLevel, File: opts.FileLevel}

	parsed := make(map[string]Levels, len(levels))
	for component, value := range levels {
		l, err := ParseLevels(value, defaults)
		if err != nil {
			return fmt.Errorf("logging.components.%s: %w", component, err)
		}
		parsed[strings.ToLower(strings.TrimSpace(component))] = l
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	for component, l := range parsed {
		lm.overrides[component] = l
		if logger, ok := lm.loggers[component]; ok {
			logger.SetLevels(l.Console, l.File)
		}
	}
	return nil
}

// SetLogLevel меняет пороги уже созданного логгера компонента.
func (lm *LoggerManager) SetLogLevel(component string, consoleLevel, fileLevel LogLevel) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	logger, ok := lm.loggers[component]
	if !ok {
		return fmt.Errorf("logger for component %s not found", component)
	}
	lm.overrides[component] = Levels{Console: consoleLevel, File: fileLevel}
	logger.SetLevels(consoleLevel, fileLevel)
	return nil
}

// Snapshot возвращает текущие пороги созданных логгеров.
func (lm *LoggerManager) Snapshot() map[string]string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	out := make(map[string]string, len(lm.loggers))
	for component, logger := range lm.loggers {
		out[component] = logger.Levels().String()
	}
	return out
}

// ListComponents возвращает имена созданных логгеров по алфавиту
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	components := make([]string, 0, len(lm.loggers))
	for component := range lm.loggers {
		components = append(components, component)
	}
	sort.Strings(components)
	return components
}

// CloseAll закрывает файлы всех логгеров. Пороги из конфигурации сохраняются.
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var lastErr error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close logger for %s: %w", component, err)
		}
	}
	lm.loggers = make(map[string]*Logger)
	return lastErr
}

// GetComponentLogger возвращает логгер компонента из глобального менеджера.
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetServerLogger() *Logger  { return GetComponentLogger(ComponentServer) }
func GetHTTPLogger() *Logger    { return GetComponentLogger(ComponentHTTP) }
func GetSamplerLogger() *Logger { return GetComponentLogger(ComponentSampler) }
func GetStorageLogger() *Logger { return GetComponentLogger(ComponentStorage) }
func GetCacheLogger() *Logger   { return GetComponentLogger(ComponentCache) }
