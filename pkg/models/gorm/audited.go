// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package gorm_model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audited is the common primary key and timestamp block of every table.
type Audited struct {
	Id          string    `json:"id" gorm:"type:varchar(36);primaryKey;<-:create"`
	CreatedDate time.Time `json:"createdDate" gorm:"type:timestamp;not null;autoCreateTime;<-:create"`
	UpdatedDate time.Time `json:"updatedDate" gorm:"type:timestamp;autoUpdateTime"`
}

func (a *Audited) BeforeCreate(tx *gorm.DB) (err error) {
	if a.Id == "" {
		a.Id = uuid.NewString()
	}
	if a.CreatedDate.IsZero() {
		a.CreatedDate = time.Now()
	}
	return nil
}

// Created is Audited for append-only rows without an update timestamp.
type Created struct {
	Id          string    `json:"id" gorm:"type:varchar(36);primaryKey;<-:create"`
	CreatedDate time.Time `json:"createdDate" gorm:"type:timestamp;not null;autoCreateTime;<-:create"`
}

func (c *Created) BeforeCreate(tx *gorm.DB) (err error) {
	if c.Id == "" {
		c.Id = uuid.NewString()
	}
	if c.CreatedDate.IsZero() {
		c.CreatedDate = time.Now()
	}
	return nil
}
