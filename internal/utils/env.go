package utils

import (
  "os"
  "strconv"
  "strings"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
)

func GetEnv(key, defaultVal string, log *logger.Logger) string {
  if log != nil {
    log = log.With("env_var", key)
  }
  val, ok := os.LookupEnv(key)
  if !ok {
    if log != nil {
      log.Debug("Environment variable not found, using default", "default", defaultVal)
    }
    return defaultVal
  }
  if log != nil {
    log.Debug("Environment variable found, using environment", "environment", val)
  }
  return val
}

func GetEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
  if log != nil {
    log = log.With("env_var", key)
  }
  valStr, ok := os.LookupEnv(key)
  if !ok {
    if log != nil {
      log.Debug("Environment variable not found, using default", "default", defaultVal)
    }
    return defaultVal
  }
  i, err := strconv.Atoi(valStr)
  if err != nil {
    if log != nil {
      log.Debug("Environment variable could not be parsed as int, using default", "providedVal", valStr, "defaultVal", defaultVal, "error", err)
    }
    return defaultVal
  }
  return i
}

func GetEnvAsBool(key string, defaultVal bool, log *logger.Logger) bool {
  valStr, ok := os.LookupEnv(key)
  if !ok {
    return defaultVal
  }
  switch strings.ToLower(strings.TrimSpace(valStr)) {
  case "1", "true", "yes", "on":
    return true
  case "0", "false", "no", "off":
    return false
  }
  if log != nil {
    log.Debug("Environment variable could not be parsed as bool, using default", "env_var", key, "providedVal", valStr, "defaultVal", defaultVal)
  }
  return defaultVal
}
