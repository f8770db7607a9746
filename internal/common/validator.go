/*
@Date: 2025/6/18
@Author: max.liu
@File : validator
*/

package common

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	zhTranslations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/samber/lo"

	"github.com/maxliu9403/ProxyBoard/models"
)

var (
	trans        ut.Translator
	registerOnce sync.Once
	registerErr  error
)

type enumRule struct {
	valid  validator.Func
	values string
}

func oneOf[T ~string](vals []T) string {
	return strings.Join(lo.Map(vals, func(v T, _ int) string { return string(v) }), " ")
}

// 自定义校验规则，字段为 string 底层类型的枚举
var rules = map[string]enumRule{
	"proxytype": {
		valid:  func(fl validator.FieldLevel) bool { return models.ProxyType(fl.Field().String()).Valid() },
		values: oneOf(models.AllProxyTypes),
	},
	"proxystatus": {
		valid:  func(fl validator.FieldLevel) bool { return models.Status(fl.Field().String()).Valid() },
		values: oneOf(models.AllStatuses),
	},
	"anonymity": {
		valid:  func(fl validator.FieldLevel) bool { return models.Anonymity(fl.Field().String()).Valid() },
		values: oneOf(models.AllAnonymities),
	},
}

func engine() (*validator.Validate, error) {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil, fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return v, nil
}

func registerRules() error {
	registerOnce.Do(func() {
		v, err := engine()
		if err != nil {
			registerErr = err
			return
		}

		// 错误信息里使用 json tag 作为字段名
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		for tag, r := range rules {
			if err = v.RegisterValidation(tag, r.valid); err != nil {
				registerErr = err
				return
			}
		}
	})
	return registerErr
}

// InitTrans 初始化 validator 翻译器, locale 支持 zh 和 en
func InitTrans(locale string) error {
	if err := registerRules(); err != nil {
		return err
	}
	v, err := engine()
	if err != nil {
		return err
	}

	enT := en.New()
	uni := ut.New(enT, zh.New(), enT)
	t, ok := uni.GetTranslator(locale)
	if !ok {
		return fmt.Errorf("uni.GetTranslator(%s) failed", locale)
	}

	switch locale {
	case "zh":
		err = zhTranslations.RegisterDefaultTranslations(v, t)
	case "en":
		err = enTranslations.RegisterDefaultTranslations(v, t)
	default:
		return fmt.Errorf("unsupported locale %s", locale)
	}
	if err != nil {
		return err
	}

	for tag, r := range rules {
		tag, msg := tag, "{0} must be one of ["+r.values+"]"
		if locale == "zh" {
			msg = "{0}必须是[" + r.values + "]中的一个"
		}
		err = v.RegisterTranslation(tag, t,
			func(u ut.Translator) error { return u.Add(tag, msg, true) },
			func(u ut.Translator, fe validator.FieldError) string {
				msg, _ := u.T(tag, fe.Field())
				return msg
			})
		if err != nil {
			return err
		}
	}

	trans = t
	return nil
}

// BindAndValid binds the request into params and validates it. An empty body
// is allowed and only validated.
func BindAndValid(c *gin.Context, params interface{}) (RetCode, error) {
	if err := registerRules(); err != nil {
		return FAILED, err
	}

	var err error
	if c.Request.ContentLength == 0 && c.Request.Method != "GET" {
		err = binding.Validator.ValidateStruct(params)
	} else {
		err = c.ShouldBind(params)
	}
	if err == nil {
		return SUCCESS, nil
	}

	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		return ErrInvalidParams, errors.New(translate(errs))
	}
	return ErrInvalidJSONParams, err
}

func translate(errs validator.ValidationErrors) string {
	if trans == nil {
		return errs.Error()
	}
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		msgs = append(msgs, fe.Translate(trans))
	}
	return strings.Join(msgs, "; ")
}
