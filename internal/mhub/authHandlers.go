package mhub

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"kyri56xcaesar/taskhub/internal/contract"
)

func handleRegister(c *gin.Context) {
	var req contract.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindErr(c)
		return
	}

	if kc != nil {
		// external IdP profile: provision in Keycloak, mirror locally
		kcID, err := kc.ProvisionUser(c.Request.Context(), req.Email, req.Name, req.Password)
		if err != nil {
			log.Printf("keycloak provisioning failed: %v", err)
			respondErr(c, contract.Errorf(contract.CodeConflict, "could not create account"))

			return
		}
		u := &contract.User{ID: kcID, Email: req.Email, Name: req.Name, Role: contract.RoleUser}
		if err := store.CreateUser(c.Request.Context(), u, ""); err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusCreated, u, "account created")

		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondErr(c, err)
		return
	}

	u := &contract.User{Email: req.Email, Name: req.Name, Role: contract.RoleUser}
	if err := store.CreateUser(c.Request.Context(), u, string(hash)); err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, http.StatusCreated, u, "account created")
}

func handleLogin(c *gin.Context) {
	var req contract.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindErr(c)
		return
	}

	if kc != nil {
		jwt, err := kc.LoginUser(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondErr(c, contract.Errorf(contract.CodeAuth, "invalid credentials"))
			return
		}
		respondOK(c, http.StatusOK, contract.TokenPair{
			AccessToken:  jwt.AccessToken,
			RefreshToken: jwt.RefreshToken,
			ExpiresIn:    int64(jwt.ExpiresIn),
		}, "")

		return
	}

	u, hash, err := store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		// same failure for unknown email and bad password
		respondErr(c, contract.Errorf(contract.CodeAuth, "invalid credentials"))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		respondErr(c, contract.Errorf(contract.CodeAuth, "invalid credentials"))
		return
	}

	pair, refreshID, err := tokens.IssuePair(u)
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := store.SaveSession(c.Request.Context(), refreshID, u.ID, time.Now().Add(tokens.RefreshTTL)); err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"tokens": pair, "user": u}, "")
}

func handleRefresh(c *gin.Context) {
	var req contract.RefreshRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindErr(c)
		return
	}

	if kc != nil {
		jwt, err := kc.Client.RefreshToken(c.Request.Context(), req.RefreshToken,
			config.ClientID, config.ClientSecret, config.Realm)
		if err != nil {
			respondErr(c, contract.Errorf(contract.CodeAuth, "invalid refresh token"))
			return
		}
		respondOK(c, http.StatusOK, contract.TokenPair{
			AccessToken:  jwt.AccessToken,
			RefreshToken: jwt.RefreshToken,
			ExpiresIn:    int64(jwt.ExpiresIn),
		}, "")

		return
	}

	claims, err := tokens.VerifyRefresh(req.RefreshToken)
	if err != nil {
		respondErr(c, err)
		return
	}

	valid, err := store.SessionValid(c.Request.Context(), claims.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if !valid {
		respondErr(c, contract.Errorf(contract.CodeAuth, "session revoked"))
		return
	}

	// rotation: the old refresh token dies here
	if err := store.RevokeSession(c.Request.Context(), claims.ID); err != nil {
		respondErr(c, err)
		return
	}

	// re-read the user so a role change lands in the new tokens
	u, err := store.GetUserByID(c.Request.Context(), claims.Subject)
	if err != nil {
		respondErr(c, contract.Errorf(contract.CodeAuth, "unknown account"))
		return
	}

	pair, refreshID, err := tokens.IssuePair(u)
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := store.SaveSession(c.Request.Context(), refreshID, u.ID, time.Now().Add(tokens.RefreshTTL)); err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, http.StatusOK, pair, "")
}

func handleLogout(c *gin.Context) {
	var req contract.RefreshRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindErr(c)
		return
	}

	if kc != nil {
		if err := kc.Client.Logout(c.Request.Context(), config.ClientID, config.ClientSecret,
			config.Realm, req.RefreshToken); err != nil {
			respondErr(c, contract.Errorf(contract.CodeAuth, "logout failed"))
			return
		}
		respondOK(c, http.StatusOK, gin.H{"status": "logged out"}, "")

		return
	}

	claims, err := tokens.VerifyRefresh(req.RefreshToken)
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := store.RevokeSession(c.Request.Context(), claims.ID); err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"status": "logged out"}, "")
}

func handleProfile(c *gin.Context) {
	me, ok := requester(c)
	if !ok {
		return
	}

	u, err := store.GetUserByID(c.Request.Context(), me.ID)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, http.StatusOK, u, "")
}
