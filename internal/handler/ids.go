package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var errInvalidID = errors.New("invalid id")

// IDList accepts either a comma separated string ("1,2,3") or a JSON array of
// numbers or numeric strings.
type IDList []uint

func (l *IDList) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*l = IDList{}
	case string:
		ids := IDList{}
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := parseID(part)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		*l = ids
	case []interface{}:
		ids := make(IDList, 0, len(v))
		for _, item := range v {
			id, err := idFromJSON(item)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		*l = ids
	default:
		return fmt.Errorf("ids must be a string or an array, got %T", raw)
	}
	return nil
}

func idFromJSON(item interface{}) (uint, error) {
	switch v := item.(type) {
	case float64:
		if v < 1 || v != math.Trunc(v) || v > math.MaxUint32 {
			return 0, errInvalidID
		}
		return uint(v), nil
	case string:
		return parseID(strings.TrimSpace(v))
	}
	return 0, errInvalidID
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidID
	}
	return uint(id), nil
}

// paramID reads the :id route parameter.
func paramID(c *fiber.Ctx) (uint, error) {
	return parseID(c.Params("id"))
}
