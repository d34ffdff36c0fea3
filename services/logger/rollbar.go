package logsvc

import (
	"fmt"
	"log"
	"strconv"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/user"
)

// RollbarLogger reports to Rollbar and echoes every entry to a std logger.
type RollbarLogger struct {
	std     *log.Logger
	enabled bool
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)

	l := &RollbarLogger{std: std}
	l.Enable(!(conf.Debug || conf.TestMode) && conf.RollbarToken != "")
	return l
}

func (l *RollbarLogger) Enable(enabled bool) {
	l.enabled = enabled
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, user.User
func (l *RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var usrSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		if usr, ok := arg.(user.User); ok {
			if !usrSet && usr.ID != 0 {
				rollbar.SetPerson(strconv.Itoa(usr.ID), usr.Name, usr.Email)
				usrSet = true
			}
		} else {
			newArgs = append(newArgs, arg)
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return newArgs
}

func (l *RollbarLogger) print(level, msg string, args []interface{}) {
	l.std.Println(level + " " + msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			l.std.Printf("  user: id=%d email=%s\n", a.ID, a.Email)
		case error:
			l.std.Printf("  %+v\n", a)
		default:
			l.std.Printf("  %s\n", fmt.Sprint(a))
		}
	}
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	if l.enabled {
		rollbar.Debug(l.prepare(msg, args)...)
	}
	l.print("DEBUG", msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	if l.enabled {
		rollbar.Info(l.prepare(msg, args)...)
	}
	l.print("INFO", msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	if l.enabled {
		rollbar.Warning(l.prepare(msg, args)...)
	}
	l.print("WARN", msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	if l.enabled {
		rollbar.Error(l.prepare(msg, args)...)
	}
	l.print("ERROR", msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	if l.enabled {
		rollbar.Critical(l.prepare(msg, args)...)
		rollbar.Wait()
	}
	l.print("FATAL", msg, args)
	l.std.Fatal(msg)
}
