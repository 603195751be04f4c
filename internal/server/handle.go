package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wx-shi/shadow-ledger/internal/model"
	"github.com/wx-shi/shadow-ledger/pkg"
	"go.uber.org/zap"
)

const defaultPageSize = 50

func (s *Server) balanceHandle() func(ctx *gin.Context) {
	return func(ctx *gin.Context) {
		address := ctx.Param("address")
		bal, err := s.balances.Balance(ctx.Request.Context(), address)
		if err != nil {
			if errors.Is(err, pkg.ErrInvalidAddress) {
				ctx.String(http.StatusBadRequest, err.Error())
				return
			}
			s.logger.Error("Balance", zap.String("address", address), zap.Error(err))
			ctx.String(http.StatusInternalServerError, err.Error())
			return
		}

		value := pkg.UnitFloat(bal.Value)
		ctx.JSON(http.StatusOK, model.BalanceReply{
			Address:               bal.Address,
			Balance:               value,
			BalanceSatoshis:       bal.Value,
			Confirmed:             value,
			ConfirmedSatoshis:     bal.Value,
			TotalReceived:         value,
			TotalReceivedSatoshis: bal.Value,
			TransactionCount:      bal.RewardCount,
			LastActivity:          "",
		})
	}
}

func (s *Server) heightHandle() func(ctx *gin.Context) {
	return func(ctx *gin.Context) {
		var sheight int64
		if s.db != nil {
			h, err := s.db.GetStoreHeight()
			if err != nil {
				ctx.String(http.StatusInternalServerError, err.Error())
				return
			}
			sheight = h
		}

		nheight, err := s.rpc.CurrentHeight(ctx.Request.Context())
		if err != nil {
			ctx.String(http.StatusInternalServerError, err.Error())
			return
		}

		ctx.JSON(http.StatusOK, model.HeightReply{
			StoreHeight: sheight,
			NodeHeight:  nheight,
		})
	}
}

func (s *Server) defectsHandle() func(ctx *gin.Context) {
	return func(ctx *gin.Context) {
		var req model.DefectsRequest
		if err := ctx.ShouldBindQuery(&req); err != nil {
			ctx.String(http.StatusBadRequest, err.Error())
			return
		}
		if req.PageSize <= 0 {
			req.PageSize = defaultPageSize
		}

		defects := []model.ScanDefect{}
		if s.db != nil {
			all, err := s.db.GetDefects()
			if err != nil {
				ctx.String(http.StatusInternalServerError, err.Error())
				return
			}
			defects = all
		}

		ctx.JSON(http.StatusOK, model.DefectsReply{
			Page:      req.Page,
			PageSize:  req.PageSize,
			TotalSize: len(defects),
			Defects:   pkg.Paginate(defects, req.Page, req.PageSize),
		})
	}
}
