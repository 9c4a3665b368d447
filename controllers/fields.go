package controllers

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/yeremiapane/delivery-services/store"
	"github.com/yeremiapane/delivery-services/utils"
)

// fieldSetter validates a PATCH value and returns the columns to write.
type fieldSetter func(value interface{}) (map[string]interface{}, error)

// fieldRegistry lists the attributes a PATCH may change. Anything absent
// is either unknown or immutable.
type fieldRegistry map[string]fieldSetter

func (r fieldRegistry) resolve(key string, value interface{}) (map[string]interface{}, error) {
	setter, ok := r[key]
	if !ok {
		return nil, utils.BadRequest("Field %s cannot be updated. Allowed fields: %s", key, strings.Join(r.names(), ", "))
	}
	return setter(utils.NormalizeNumber(value))
}

func (r fieldRegistry) names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// stringField accepts a string, optionally restricted by valid.
func stringField(column string, valid func(string) bool, invalid string) fieldSetter {
	return func(value interface{}) (map[string]interface{}, error) {
		s, ok := value.(string)
		if !ok {
			return nil, utils.BadRequest("%s must be a string", column)
		}
		if valid != nil && !valid(s) {
			return nil, utils.BadRequest("%s", invalid)
		}
		return map[string]interface{}{column: s}, nil
	}
}

func boolField(column string) fieldSetter {
	return func(value interface{}) (map[string]interface{}, error) {
		b, ok := value.(bool)
		if !ok {
			return nil, utils.BadRequest("%s must be a boolean", column)
		}
		return map[string]interface{}{column: b}, nil
	}
}

// scanError maps a rejected filter onto a client error.
func scanError(err error) error {
	if errors.Is(err, store.ErrUnknownAttribute) {
		return utils.BadRequest("Unknown query parameter")
	}
	return err
}

// missingFields renders the missing-field message shared by the POST
// handlers.
func missingFields(names []string) error {
	return utils.BadRequest("Missing required fields: %s", strings.Join(names, ", "))
}

// bindJSON decodes the body keeping numbers as json.Number, then runs the
// binding validator over v.
func bindJSON(c *gin.Context, v interface{}) error {
	if c.Request.Body == nil {
		return errors.New("empty body")
	}
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return binding.Validator.ValidateStruct(v)
}

// hoursFilter turns an age-in-hours query value into a client error or a
// cutoff instant.
func hoursFilter(param, raw string, now time.Time) (time.Time, error) {
	cutoff, err := utils.HoursAgo(raw, now)
	switch {
	case errors.Is(err, utils.ErrHoursNotInteger):
		return time.Time{}, utils.BadRequest("Invalid %s parameter. Must be an integer.", param)
	case err != nil:
		return time.Time{}, utils.BadRequest("Invalid %s value, must be a positive integer.", param)
	}
	return cutoff, nil
}
