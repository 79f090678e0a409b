/*
Copyright 2024 BattleLink Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package serial

import "errors"

// Common errors
var (
	ErrPortNotFound  = errors.New("port not found")
	ErrNoController  = errors.New("no game controller detected")
	ErrInvalidConfig = errors.New("invalid port configuration")
	ErrOpenFailed    = errors.New("failed to open port")
	ErrPortClosed    = errors.New("port has been closed")
	ErrReadTimeout   = errors.New("read timeout")
	ErrReadFailed    = errors.New("read failed")
	ErrWriteFailed   = errors.New("write failed")
)
