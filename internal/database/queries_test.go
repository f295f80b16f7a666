package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_directKey(t *testing.T) {
	assert.Equal(t, "3:7", directKey(3, 7))
	assert.Equal(t, "3:7", directKey(7, 3))
	assert.Equal(t, "5:5", directKey(5, 5))
}
