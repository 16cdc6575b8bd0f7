package service

import (
	"errors"
	"reflect"
	"strconv"
	"time"

	"github.com/askboard/askboard/caching"
	"github.com/askboard/askboard/database"
	"github.com/askboard/askboard/database/model"
	"github.com/askboard/askboard/logger"
	"github.com/askboard/askboard/util/random"
	"github.com/askboard/askboard/web/entity"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	keyListen        = "webListen"
	keyPort          = "webPort"
	keyCertFile      = "webCertFile"
	keyKeyFile       = "webKeyFile"
	keyBasePath      = "webBasePath"
	keySecret        = "secret"
	keySessionMaxAge = "sessionMaxAge"
	keyTimeLocation  = "timeLocation"
	keyProxies       = "trustedProxies"
)

var defaultValueMap = map[string]string{
	keyListen:        "",
	keyPort:          "5000",
	keyCertFile:      "",
	keyKeyFile:       "",
	keyBasePath:      "/",
	keySecret:        random.Seq(32),
	keySessionMaxAge: "0",
	keyTimeLocation:  "UTC",
	keyProxies:       "",
}

// SettingService reads and writes the key/value settings table. Keys
// without a row fall back to defaultValueMap. Stored values are cached
// until they are written again.
type SettingService struct {
	db    *gorm.DB
	cache *caching.Cache
}

func NewSettingService(db *gorm.DB) *SettingService {
	return &SettingService{db: db, cache: caching.NewCache(caching.DefaultTTL)}
}

// GetAllSetting returns every setting except the secret, defaults filled in.
func (s *SettingService) GetAllSetting() (*entity.AllSetting, error) {
	rows := make([]model.Setting, 0)
	if err := s.db.Where("key <> ?", keySecret).Find(&rows).Error; err != nil {
		return nil, err
	}
	values := make(map[string]string, len(defaultValueMap))
	for k, v := range defaultValueMap {
		values[k] = v
	}
	for _, row := range rows {
		values[row.Key] = row.Value
	}

	all := &entity.AllSetting{}
	v := reflect.ValueOf(all).Elem()
	for _, field := range reflect.VisibleFields(v.Type()) {
		key := field.Tag.Get("json")
		value, ok := values[key]
		if !ok {
			continue
		}
		if err := assignField(v.FieldByIndex(field.Index), value); err != nil {
			return nil, pkgerrors.Errorf("setting %v: %v", key, err)
		}
	}
	return all, nil
}

func assignField(f reflect.Value, value string) error {
	switch f.Kind() {
	case reflect.String:
		f.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		f.SetInt(int64(n))
	default:
		return pkgerrors.Errorf("unsupported kind %v", f.Kind())
	}
	return nil
}

// UpdateAllSetting validates and stores every field of all.
func (s *SettingService) UpdateAllSetting(all *entity.AllSetting) error {
	if err := all.CheckValid(); err != nil {
		return err
	}
	v := reflect.ValueOf(all).Elem()
	errs := make([]error, 0)
	for _, field := range reflect.VisibleFields(v.Type()) {
		value := v.FieldByIndex(field.Index)
		var str string
		if value.Kind() == reflect.Int {
			str = strconv.FormatInt(value.Int(), 10)
		} else {
			str = value.String()
		}
		errs = append(errs, s.saveSetting(field.Tag.Get("json"), str))
	}
	return errors.Join(errs...)
}

// ResetSettings drops every stored setting, including the session secret.
func (s *SettingService) ResetSettings() error {
	defer s.cache.Flush()
	return s.db.Where("1 = 1").Delete(&model.Setting{}).Error
}

func (s *SettingService) saveSetting(key, value string) error {
	defer s.cache.Delete(key)
	setting := &model.Setting{}
	err := s.db.Where("key = ?", key).First(setting).Error
	switch {
	case database.IsNotFound(err):
		return s.db.Create(&model.Setting{Key: key, Value: value}).Error
	case err != nil:
		return err
	}
	return s.db.Model(setting).Update("value", value).Error
}

func (s *SettingService) getString(key string) (string, error) {
	if value, ok := s.cache.GetString(key); ok {
		return value, nil
	}
	setting := &model.Setting{}
	err := s.db.Where("key = ?", key).First(setting).Error
	if database.IsNotFound(err) {
		value, ok := defaultValueMap[key]
		if !ok {
			return "", pkgerrors.Errorf("key <%v> not in defaultValueMap", key)
		}
		return value, nil
	} else if err != nil {
		return "", err
	}
	s.cache.SetString(key, setting.Value)
	return setting.Value, nil
}

func (s *SettingService) getInt(key string) (int, error) {
	str, err := s.getString(key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(str)
}

func (s *SettingService) GetListen() (string, error) {
	return s.getString(keyListen)
}

func (s *SettingService) GetPort() (int, error) {
	return s.getInt(keyPort)
}

func (s *SettingService) GetCertFile() (string, error) {
	return s.getString(keyCertFile)
}

func (s *SettingService) GetKeyFile() (string, error) {
	return s.getString(keyKeyFile)
}

// GetSessionMaxAge returns the session lifetime in minutes.
func (s *SettingService) GetSessionMaxAge() (int, error) {
	return s.getInt(keySessionMaxAge)
}

// GetSecret returns the cookie signing key. The generated default is
// persisted on first use so sessions survive restarts.
func (s *SettingService) GetSecret() ([]byte, error) {
	secret, err := s.getString(keySecret)
	if err != nil {
		return nil, err
	}
	if secret == defaultValueMap[keySecret] {
		if err := s.saveSetting(keySecret, secret); err != nil {
			logger.Warning("save secret failed:", err)
		}
	}
	return []byte(secret), nil
}

// GetBasePath returns the URL prefix, always with leading and trailing slash.
func (s *SettingService) GetBasePath() (string, error) {
	basePath, err := s.getString(keyBasePath)
	if err != nil {
		return "", err
	}
	return entity.NormalizeBasePath(basePath), nil
}

func (s *SettingService) GetTimeLocation() (*time.Location, error) {
	name, err := s.getString(keyTimeLocation)
	if err != nil {
		return nil, err
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		fallback := defaultValueMap[keyTimeLocation]
		logger.Errorf("location <%v> not exist, using default location: %v", name, fallback)
		return time.LoadLocation(fallback)
	}
	return location, nil
}

// GetTrustedProxies returns the addresses whose X-Forwarded-* headers are
// honored. Empty means none.
func (s *SettingService) GetTrustedProxies() ([]string, error) {
	list, err := s.getString(keyProxies)
	if err != nil {
		return nil, err
	}
	return entity.SplitProxies(list), nil
}
