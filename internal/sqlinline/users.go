package sqlinline

const QInsertUser = `--sql 1b80c10e-b176-442e-859e-e9d067da81f5
insert into users (id, name, email, phone, password_hash, role, email_verified, created_at, updated_at)
values (gen_random_uuid(), $1::text, lower($2::text), $3::text, $4::text, coalesce(nullif($5::text, ''), 'user'), false, now(), now())
returning id, role, email_verified, created_at, updated_at;
`

const QSelectUserByID = `--sql 5b2447b3-504d-481a-85e6-456509655fe6
select id, name, email, phone, password_hash, role, email_verified, created_at, updated_at
from users
where id = $1::uuid
limit 1;
`

const QSelectUserByEmail = `--sql ab7cb277-2423-433c-8146-1b21cf4e7a1e
select id, name, email, phone, password_hash, role, email_verified, created_at, updated_at
from users
where email = lower($1::text)
limit 1;
`

const QDeleteUser = `--sql 8b0465c6-15ee-4b8c-95f3-26ddf6957406
delete from users
where id = $1::uuid;
`

const QMarkUserEmailVerified = `--sql bfa1ed4f-6d77-4eaf-a2f6-6eef05d6ede6
update users
set email_verified = true, updated_at = now()
where id = $1::uuid;
`

const QUpdateUserPassword = `--sql f074f61f-d28a-40e5-86e0-777fb1e09914
update users
set password_hash = $2::text, updated_at = now()
where email = lower($1::text);
`

const QUpdateUserRoleByID = `--sql 89344daf-b139-4518-953e-ad2043df19ec
update users
set role = $2::text, updated_at = now()
where id = $1::uuid
returning id, email, role;
`

const QUpdateUserRoleByEmail = `--sql d1d3980a-95ee-4a01-a74b-b93b9571525e
update users
set role = $2::text, updated_at = now()
where email = lower($1::text)
returning id, email, role;
`
