package logger

import (
	"fmt"

	"go.uber.org/zap"
)

var base *zap.Logger

var serviceName = "alert_bot"

// Init собирает production-zap и запоминает имя сервиса для поля service.
// Вызывается один раз из main до старта fx-приложения.
func Init(service string) error {
	if service != "" {
		serviceName = service
	}
	l, err := zap.NewProduction()
	if err != nil {
		return err
	}
	base = l
	return nil
}

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName
	return oldName
}

func log() *zap.Logger {
	if base == nil {
		// до Init — чтобы ранние сообщения не роняли процесс (и тесты)
		base = zap.NewNop()
	}
	return base.With(zap.String("service", serviceName))
}

func Debug(format string, args ...interface{}) {
	log().Debug(fmt.Sprintf(format, args...))
}

func Info(format string, args ...interface{}) {
	log().Info(fmt.Sprintf(format, args...))
}

func Warn(format string, args ...interface{}) {
	log().Warn(fmt.Sprintf(format, args...))
}

func Error(format string, args ...interface{}) {
	log().Error(fmt.Sprintf(format, args...))
}

func Fatal(format string, args ...interface{}) {
	log().Fatal(fmt.Sprintf(format, args...))
}
